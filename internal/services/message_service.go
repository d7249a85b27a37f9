package services

import (
	"context"
	"errors"
	"time"

	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/events"
	"hangoutz/internal/moderation"
	"hangoutz/internal/proxy"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

type MessageService struct {
	store       repository.Store
	access      *proxy.AccessControl
	broadcaster events.Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

func NewMessageService(store repository.Store, access *proxy.AccessControl, broadcaster events.Broadcaster, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		store:       store,
		access:      access,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// ReadResult describes the outcome of MarkRead. Recorded is false for the
// sender's own message and for repeat reads.
type ReadResult struct {
	Message  string
	Recorded bool
}

// Send stores a message after moderation and fans it out to the personal
// room of every other participant. Insert, preview and unread counters are
// written in one transaction; notifications go out after commit.
func (s *MessageService) Send(ctx context.Context, requester user.User, conversationID uuid.UUID, body string, msgType message.Type) (message.Message, error) {
	if conversationID == uuid.Nil {
		return message.Message{}, hangoutz_errors.Validation("Channel ID and message are required")
	}
	body, err := message.NormalizeBody(body)
	if err != nil {
		return message.Message{}, err
	}
	if msgType == "" {
		msgType = message.TypeText
	}
	if !msgType.Valid() {
		return message.Message{}, hangoutz_errors.Validation("Invalid message type")
	}

	conv, err := s.access.LoadConversation(ctx, conversationID, requester.ID, "Not authorized to send messages in this conversation")
	if err != nil {
		return message.Message{}, err
	}

	verdict := moderation.Classify(body)
	if verdict.Is(moderation.SeverityHigh) {
		return message.Message{}, hangoutz_errors.Validation("Message contains inappropriate content")
	}

	now := s.now()
	m := message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       requester.ID,
		SenderName:     requester.Name,
		Body:           body,
		Type:           msgType,
		IsModerated:    verdict.Flagged,
		ModerationFlag: verdict.ReasonText(),
		CreatedAt:      now,
		ReadBy:         []message.Receipt{},
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Messages().Create(ctx, &m); err != nil {
			return err
		}
		if err := tx.Conversations().RecordMessage(ctx, conv.ID, requester.ID, body, now); err != nil {
			return err
		}
		if verdict.Flagged {
			return tx.Users().IncrementActivity(ctx, requester.ID, repository.ActivityMessagesModerated, 1)
		}
		return nil
	})
	if err != nil {
		return message.Message{}, err
	}

	payload := events.MessageNewPayload{ConversationID: conv.ID, Message: m}
	for _, id := range conv.ParticipantIDs(requester.ID) {
		if err := events.NotifyUser(ctx, s.broadcaster, id, events.MessageNew, payload); err != nil {
			s.logger.Warn("failed to emit new message",
				zap.String("message_id", m.ID.String()),
				zap.String("recipient_id", id.String()),
				zap.Error(err))
		}
	}
	return m, nil
}

// List returns the newest limit messages older than before, oldest first.
func (s *MessageService) List(ctx context.Context, requester, conversationID uuid.UUID, limit int, before *time.Time) ([]message.Message, error) {
	if _, err := s.access.LoadConversation(ctx, conversationID, requester, "Not authorized to view these messages"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	return s.store.Messages().ListByConversation(ctx, conversationID, before, limit)
}

// MarkRead records the first read of a message by requester and tells the
// sender about it. Reading one's own message, or reading twice, changes
// nothing.
func (s *MessageService) MarkRead(ctx context.Context, requester, messageID uuid.UUID) (ReadResult, error) {
	m, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return ReadResult{}, err
	}
	if m.SenderID == requester {
		return ReadResult{Message: "Own message, no action needed"}, nil
	}
	if _, err := s.access.LoadConversation(ctx, m.ConversationID, requester, "Not authorized to read this message"); err != nil {
		return ReadResult{}, err
	}

	inserted, err := s.store.Messages().AddReader(ctx, message.Receipt{
		MessageID: m.ID,
		UserID:    requester,
		ReadAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return ReadResult{}, hangoutz_errors.NotFound("Message not found")
		}
		return ReadResult{}, err
	}
	if !inserted {
		return ReadResult{Message: "Message marked as read"}, nil
	}

	payload := events.MessageReadPayload{MessageID: m.ID, ReadBy: requester}
	if err := events.NotifyUser(ctx, s.broadcaster, m.SenderID, events.MessageRead, payload); err != nil {
		s.logger.Warn("failed to emit read receipt",
			zap.String("message_id", m.ID.String()),
			zap.Error(err))
	}
	return ReadResult{Message: "Message marked as read", Recorded: true}, nil
}

// Delete removes a message sent by requester and notifies every participant,
// the deleter included.
func (s *MessageService) Delete(ctx context.Context, requester, messageID uuid.UUID) error {
	m, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.access.EnsureOwner(requester, m.SenderID, "Not authorized to delete this message"); err != nil {
		return err
	}

	if err := s.store.Messages().Delete(ctx, m.ID); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("Message not found")
		}
		return err
	}

	conv, err := s.store.Conversations().GetByID(ctx, m.ConversationID)
	if err != nil {
		s.logger.Warn("deleted message without a conversation",
			zap.String("message_id", m.ID.String()),
			zap.Error(err))
		return nil
	}
	payload := events.MessageDeletedPayload{ConversationID: conv.ID, MessageID: m.ID}
	for _, id := range conv.ParticipantIDs(uuid.Nil) {
		if err := events.NotifyUser(ctx, s.broadcaster, id, events.MessageDeleted, payload); err != nil {
			s.logger.Warn("failed to emit message deletion",
				zap.String("message_id", m.ID.String()),
				zap.String("recipient_id", id.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *MessageService) loadMessage(ctx context.Context, id uuid.UUID) (message.Message, error) {
	m, err := s.store.Messages().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return message.Message{}, hangoutz_errors.NotFound("Message not found")
		}
		return message.Message{}, err
	}
	return m, nil
}
