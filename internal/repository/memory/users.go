package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

type userRepo struct {
	db   *database
	inTx bool
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.users[u.ID]; ok {
		return hangoutz_errors.ErrAlreadyExists
	}
	for _, existing := range r.db.t.users {
		if existing.Phone == u.Phone {
			return hangoutz_errors.ErrAlreadyExists
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.db.t.users[u.ID] = copyUser(*u)
	r.db.t.stamp(u.ID)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	defer r.db.lock(r.inTx)()

	u, ok := r.db.t.users[id]
	if !ok {
		return user.User{}, hangoutz_errors.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (user.User, error) {
	defer r.db.lock(r.inTx)()

	for _, u := range r.db.t.users {
		if u.Phone == phone {
			return copyUser(u), nil
		}
	}
	return user.User{}, hangoutz_errors.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, filter repository.UserFilter) ([]user.User, int64, error) {
	defer r.db.lock(r.inTx)()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []user.User
	for _, u := range r.db.t.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Bio), search) {
			continue
		}
		matched = append(matched, copyUser(u))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TrustScore != matched[j].TrustScore {
			return matched[i].TrustScore > matched[j].TrustScore
		}
		return r.db.t.order[matched[i].ID] > r.db.t.order[matched[j].ID]
	})

	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *userRepo) Update(ctx context.Context, u user.User) error {
	defer r.db.lock(r.inTx)()

	existing, ok := r.db.t.users[u.ID]
	if !ok {
		return hangoutz_errors.ErrNotFound
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now()
	r.db.t.users[u.ID] = copyUser(u)
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.users[id]; !ok {
		return hangoutz_errors.ErrNotFound
	}
	delete(r.db.t.users, id)
	return nil
}

func (r *userRepo) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer r.db.lock(r.inTx)()

	u, ok := r.db.t.users[id]
	if !ok {
		return nil
	}
	u.LastActive.Time = at
	u.LastActive.Valid = true
	r.db.t.users[id] = u
	return nil
}

func (r *userRepo) IncrementActivity(ctx context.Context, id uuid.UUID, column repository.ActivityColumn, delta int) error {
	defer r.db.lock(r.inTx)()

	u, ok := r.db.t.users[id]
	if !ok {
		return nil
	}
	var counter *int
	switch column {
	case repository.ActivityEventsHosted:
		counter = &u.EventsHosted
	case repository.ActivityEventsAttended:
		counter = &u.EventsAttended
	case repository.ActivityMessagesModerated:
		counter = &u.MessagesModerated
	default:
		return fmt.Errorf("unknown activity column %q", column)
	}
	*counter = max(0, *counter+delta)
	r.db.t.users[id] = u
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
