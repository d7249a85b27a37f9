package memory

import (
	"context"
	"sort"
	"time"

	"hangoutz/internal/domain/message"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

type messageRepo struct {
	db   *database
	inTx bool
}

func (r *messageRepo) Create(ctx context.Context, m *message.Message) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.messages[m.ID]; ok {
		return hangoutz_errors.ErrAlreadyExists
	}
	if _, ok := r.db.t.conversations[m.ConversationID]; !ok {
		return hangoutz_errors.ErrNotFound
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.db.t.messages[m.ID] = copyMessage(*m)
	r.db.t.stamp(m.ID)
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	defer r.db.lock(r.inTx)()

	m, ok := r.db.t.messages[id]
	if !ok {
		return message.Message{}, hangoutz_errors.ErrNotFound
	}
	return copyMessage(m), nil
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]message.Message, error) {
	defer r.db.lock(r.inTx)()

	var out []message.Message
	for _, m := range r.db.t.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, copyMessage(m))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return r.db.t.order[out[i].ID] < r.db.t.order[out[j].ID]
	})

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []message.Message{}
	}
	return out, nil
}

func (r *messageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.messages[id]; !ok {
		return hangoutz_errors.ErrNotFound
	}
	delete(r.db.t.messages, id)
	return nil
}

func (r *messageRepo) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	for id, m := range r.db.t.messages {
		if m.ConversationID == conversationID {
			delete(r.db.t.messages, id)
		}
	}
	return nil
}

func (r *messageRepo) AddReader(ctx context.Context, receipt message.Receipt) (bool, error) {
	defer r.db.lock(r.inTx)()

	m, ok := r.db.t.messages[receipt.MessageID]
	if !ok {
		return false, hangoutz_errors.ErrNotFound
	}
	if m.ReadByUser(receipt.UserID) {
		return false, nil
	}
	if receipt.ReadAt.IsZero() {
		receipt.ReadAt = time.Now()
	}
	m = copyMessage(m)
	m.ReadBy = append(m.ReadBy, receipt)
	m.IsRead = true
	r.db.t.messages[m.ID] = m
	return true, nil
}
