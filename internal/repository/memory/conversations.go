package memory

import (
	"context"
	"sort"
	"time"

	"hangoutz/internal/domain/conversation"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

type conversationRepo struct {
	db   *database
	inTx bool
}

func (r *conversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.conversations[c.ID]; ok {
		return hangoutz_errors.ErrAlreadyExists
	}
	if c.DirectKey.Valid {
		for _, existing := range r.db.t.conversations {
			if existing.DirectKey.Valid && existing.DirectKey.String == c.DirectKey.String {
				return hangoutz_errors.ErrAlreadyExists
			}
		}
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	for i := range c.Participants {
		c.Participants[i].ConversationID = c.ID
	}
	r.db.t.conversations[c.ID] = copyConversation(*c)
	r.db.t.stamp(c.ID)
	return nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	defer r.db.lock(r.inTx)()

	c, ok := r.db.t.conversations[id]
	if !ok {
		return conversation.Conversation{}, hangoutz_errors.ErrNotFound
	}
	return copyConversation(c), nil
}

func (r *conversationRepo) GetDirect(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error) {
	defer r.db.lock(r.inTx)()

	key := conversation.DirectKey(userID1, userID2)
	for _, c := range r.db.t.conversations {
		if c.Type == conversation.TypeDirect && c.DirectKey.Valid && c.DirectKey.String == key {
			return copyConversation(c), nil
		}
	}
	return conversation.Conversation{}, hangoutz_errors.ErrNotFound
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	defer r.db.lock(r.inTx)()

	out := []conversation.Conversation{}
	for _, c := range r.db.t.conversations {
		if c.HasParticipant(userID) {
			out = append(out, copyConversation(c))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return r.db.t.order[out[i].ID] > r.db.t.order[out[j].ID]
	})
	return out, nil
}

func (r *conversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.conversations[id]; !ok {
		return hangoutz_errors.ErrNotFound
	}
	for mid, m := range r.db.t.messages {
		if m.ConversationID == id {
			delete(r.db.t.messages, mid)
		}
	}
	delete(r.db.t.conversations, id)
	return nil
}

func (r *conversationRepo) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	defer r.db.lock(r.inTx)()

	c, ok := r.db.t.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return c.HasParticipant(userID), nil
}

func (r *conversationRepo) RecordMessage(ctx context.Context, conversationID, senderID uuid.UUID, preview string, at time.Time) error {
	defer r.db.lock(r.inTx)()

	c, ok := r.db.t.conversations[conversationID]
	if !ok {
		return hangoutz_errors.ErrNotFound
	}
	c = copyConversation(c)
	c.LastMessage = preview
	c.LastMessageAt = at
	c.UpdatedAt = at
	for i := range c.Participants {
		if c.Participants[i].UserID != senderID {
			c.Participants[i].UnreadCount++
		}
	}
	r.db.t.conversations[conversationID] = c
	return nil
}

func (r *conversationRepo) ResetUnread(ctx context.Context, conversationID, userID uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	c, ok := r.db.t.conversations[conversationID]
	if !ok {
		return nil
	}
	c = copyConversation(c)
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			c.Participants[i].UnreadCount = 0
		}
	}
	r.db.t.conversations[conversationID] = c
	return nil
}
