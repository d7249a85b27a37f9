package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
)

type UserFilter struct {
	Search string
	Page   int
	Limit  int
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByPhone(ctx context.Context, phone string) (user.User, error)
	List(ctx context.Context, filter UserFilter) ([]user.User, int64, error)
	Update(ctx context.Context, u user.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error
	IncrementActivity(ctx context.Context, id uuid.UUID, column ActivityColumn, delta int) error
}

// ActivityColumn names one of the trust score counters on users.
type ActivityColumn string

const (
	ActivityEventsHosted      ActivityColumn = "events_hosted"
	ActivityEventsAttended    ActivityColumn = "events_attended"
	ActivityMessagesModerated ActivityColumn = "messages_moderated"
)

// EventFilter mirrors the list query parameters. Status filtering is done on
// the time window derived from Now rather than the stored status column.
type EventFilter struct {
	Status           event.Status
	Category         event.Category
	Search           string
	Near             *GeoPoint
	MaxDistance      float64
	Page             int
	Limit            int
	Sort             string
	Now              time.Time
	ExcludeCancelled bool
}

type GeoPoint struct {
	Lat float64
	Lng float64
}

// EventScope selects events a user hosts, joined, or both.
type EventScope string

const (
	EventScopeHosted EventScope = "hosted"
	EventScopeJoined EventScope = "joined"
	EventScopeAll    EventScope = "all"
)

type EventRepository interface {
	Create(ctx context.Context, e *event.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (event.Event, error)
	// GetByIDForUpdate locks the event row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (event.Event, error)
	Update(ctx context.Context, e event.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter EventFilter) ([]event.Event, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, scope EventScope) ([]event.Event, error)

	AddParticipant(ctx context.Context, p *event.Participant) error
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error
}

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetDirect(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)

	// RecordMessage sets the last-message fields and bumps every unread
	// counter except the sender's by one.
	RecordMessage(ctx context.Context, conversationID, senderID uuid.UUID, preview string, at time.Time) error
	ResetUnread(ctx context.Context, conversationID, userID uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	// ListByConversation returns the newest limit messages created before
	// before (or now when nil), oldest first.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]message.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error

	// AddReader records a receipt and marks the message read. It reports
	// false when the reader was already recorded.
	AddReader(ctx context.Context, r message.Receipt) (bool, error)
}

// Store groups the repositories and runs work in a single transaction.
type Store interface {
	Users() UserRepository
	Events() EventRepository
	Conversations() ConversationRepository
	Messages() MessageRepository

	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
