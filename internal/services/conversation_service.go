package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/proxy"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

type ConversationService struct {
	store  repository.Store
	access *proxy.AccessControl
	now    func() time.Time
}

func NewConversationService(store repository.Store, access *proxy.AccessControl) *ConversationService {
	return &ConversationService{store: store, access: access, now: time.Now}
}

// CreateOrGetDirect returns the direct conversation between requester and
// otherUserID, creating it when none exists. created reports which happened.
// A concurrent creator that loses the unique direct key race reads back the
// winner's conversation.
func (s *ConversationService) CreateOrGetDirect(ctx context.Context, requester user.User, otherUserID uuid.UUID) (conversation.Conversation, bool, error) {
	if otherUserID == uuid.Nil {
		return conversation.Conversation{}, false, hangoutz_errors.Validation("Other user ID is required")
	}
	if otherUserID == requester.ID {
		return conversation.Conversation{}, false, hangoutz_errors.Validation("Cannot start a conversation with yourself")
	}

	other, err := s.store.Users().GetByID(ctx, otherUserID)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return conversation.Conversation{}, false, hangoutz_errors.NotFound("User not found")
		}
		return conversation.Conversation{}, false, err
	}

	existing, err := s.store.Conversations().GetDirect(ctx, requester.ID, otherUserID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, hangoutz_errors.ErrNotFound) {
		return conversation.Conversation{}, false, err
	}

	now := s.now()
	c := conversation.Conversation{
		ID:            uuid.New(),
		Type:          conversation.TypeDirect,
		DirectKey:     sql.NullString{String: conversation.DirectKey(requester.ID, otherUserID), Valid: true},
		LastMessage:   "",
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.Participants = []conversation.Participant{
		conversation.NewParticipant(c.ID, requester.Snapshot(), now),
		conversation.NewParticipant(c.ID, other.Snapshot(), now),
	}

	if err := s.store.Conversations().Create(ctx, &c); err != nil {
		if errors.Is(err, hangoutz_errors.ErrAlreadyExists) {
			winner, getErr := s.store.Conversations().GetDirect(ctx, requester.ID, otherUserID)
			if getErr != nil {
				return conversation.Conversation{}, false, getErr
			}
			return winner, false, nil
		}
		return conversation.Conversation{}, false, err
	}
	return c, true, nil
}

// CreateGroup creates a group conversation holding requester and every id in
// participantIDs. Duplicate ids are collapsed.
func (s *ConversationService) CreateGroup(ctx context.Context, requester user.User, name string, participantIDs []uuid.UUID) (conversation.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return conversation.Conversation{}, hangoutz_errors.Validation("Group name is required")
	}

	now := s.now()
	c := conversation.Conversation{
		ID:            uuid.New(),
		Type:          conversation.TypeGroup,
		GroupName:     name,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.Participants = append(c.Participants, conversation.NewParticipant(c.ID, requester.Snapshot(), now))

	seen := map[uuid.UUID]bool{requester.ID: true}
	for _, id := range participantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		member, err := s.store.Users().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, hangoutz_errors.ErrNotFound) {
				return conversation.Conversation{}, hangoutz_errors.NotFound("User not found")
			}
			return conversation.Conversation{}, err
		}
		c.Participants = append(c.Participants, conversation.NewParticipant(c.ID, member.Snapshot(), now))
	}
	if len(c.Participants) < 2 {
		return conversation.Conversation{}, hangoutz_errors.Validation("A group needs at least two participants")
	}

	if err := s.store.Conversations().Create(ctx, &c); err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (s *ConversationService) List(ctx context.Context, requester uuid.UUID) ([]conversation.Conversation, error) {
	return s.store.Conversations().ListForUser(ctx, requester)
}

func (s *ConversationService) Get(ctx context.Context, requester, id uuid.UUID) (conversation.Conversation, error) {
	return s.access.LoadConversation(ctx, id, requester, "Not authorized to view this conversation")
}

// Delete removes the conversation together with its messages.
func (s *ConversationService) Delete(ctx context.Context, requester, id uuid.UUID) error {
	if _, err := s.access.LoadConversation(ctx, id, requester, "Not authorized to delete this conversation"); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Messages().DeleteByConversation(ctx, id); err != nil {
			return err
		}
		return tx.Conversations().Delete(ctx, id)
	})
}

// MarkRead zeroes the requester's unread counter and leaves the others alone.
func (s *ConversationService) MarkRead(ctx context.Context, requester, id uuid.UUID) error {
	if _, err := s.access.LoadConversation(ctx, id, requester, "Not authorized to view this conversation"); err != nil {
		return err
	}
	return s.store.Conversations().ResetUnread(ctx, id, requester)
}
