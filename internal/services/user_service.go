package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/moderation"
	"hangoutz/internal/proxy"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserService struct {
	store  repository.Store
	access *proxy.AccessControl
	cache  UserCache
	now    func() time.Time
}

func NewUserService(store repository.Store, access *proxy.AccessControl, cache UserCache) *UserService {
	return &UserService{store: store, access: access, cache: cache, now: time.Now}
}

// UpdateUserInput holds the optional profile fields; nil leaves a field as is.
type UpdateUserInput struct {
	Name      *string
	Bio       *string
	Interests []string
	Photos    []string
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return user.User{}, hangoutz_errors.NotFound("User not found")
		}
		return user.User{}, err
	}
	return u, nil
}

// List searches users by name or bio, best trust score first. Block lists
// are never exposed in listings.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]user.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].BlockedUsers = nil
	}
	return users, total, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, requester, id uuid.UUID, in UpdateUserInput) (user.User, error) {
	if err := s.access.EnsureOwner(requester, id, "Not authorized to update this profile"); err != nil {
		return user.User{}, err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	// an empty name is ignored rather than clearing the profile
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Interests != nil {
		u.Interests = datatypes.JSONSlice[string](in.Interests)
	}
	if in.Photos != nil {
		u.SetPhotos(in.Photos)
	}
	u.RefreshCompletion()

	if err := s.save(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, requester, id uuid.UUID) error {
	if err := s.access.EnsureOwner(requester, id, "Not authorized to delete this account"); err != nil {
		return err
	}
	if err := s.store.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("User not found")
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SubmitVerification records the verification photo, marks the user verified
// and recomputes the trust score.
func (s *UserService) SubmitVerification(ctx context.Context, requester, id uuid.UUID, photoURL string) (user.User, error) {
	if err := s.access.EnsureOwner(requester, id, "Not authorized"); err != nil {
		return user.User{}, err
	}
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return user.User{}, hangoutz_errors.Validation("Verification photo is required")
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.VerificationPhotoURL = photoURL
	u.Verified = true
	u.TrustScore = moderation.TrustScore(u, u.Activity(), s.now())

	if err := s.save(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *UserService) Block(ctx context.Context, requester, id, targetID uuid.UUID) error {
	if err := s.access.EnsureOwner(requester, id, "Not authorized"); err != nil {
		return err
	}
	if id == targetID {
		return hangoutz_errors.Validation("You cannot block yourself")
	}
	if _, err := s.store.Users().GetByID(ctx, targetID); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("User to block not found")
		}
		return err
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.Block(targetID) {
		return nil
	}
	return s.save(ctx, u)
}

func (s *UserService) Unblock(ctx context.Context, requester, id, targetID uuid.UUID) error {
	if err := s.access.EnsureOwner(requester, id, "Not authorized"); err != nil {
		return err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.Unblock(targetID) {
		return nil
	}
	return s.save(ctx, u)
}

// TouchLastActive is called by the gateway on connect and disconnect.
func (s *UserService) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	return s.store.Users().TouchLastActive(ctx, id, s.now())
}

func (s *UserService) save(ctx context.Context, u user.User) error {
	if err := s.store.Users().Update(ctx, u); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("User not found")
		}
		return err
	}
	s.invalidate(ctx, u.ID)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, id)
	}
}
