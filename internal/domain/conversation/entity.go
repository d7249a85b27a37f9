package conversation

import (
	"database/sql"
	"time"

	"hangoutz/internal/domain/user"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDirect Type = "direct"
	TypeGroup  Type = "group"
)

// Conversation represents the conversations table
type Conversation struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type          Type           `gorm:"not null" json:"type"`
	GroupName     string         `json:"groupName,omitempty"`
	GroupPhoto    string         `json:"groupPhoto,omitempty"`
	DirectKey     sql.NullString `gorm:"uniqueIndex" json:"-"`
	LastMessage   string         `json:"lastMessage"`
	LastMessageAt time.Time      `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Relationships
	Participants []Participant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"participants"`
}

// Participant represents the conversation_participants table. It carries the
// member snapshot and that member's unread counter.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"id"`
	Name           string    `json:"name"`
	PhotoURL       string    `json:"photoURL"`
	UnreadCount    int       `gorm:"not null;default:0" json:"unreadCount"`
	JoinedAt       time.Time `json:"joinedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "conversation_participants"
}

// DirectKey is the canonical, order-independent key of a direct pair.
func DirectKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

func NewParticipant(conversationID uuid.UUID, s user.Snapshot, at time.Time) Participant {
	return Participant{ConversationID: conversationID, UserID: s.ID, Name: s.Name, PhotoURL: s.PhotoURL, JoinedAt: at}
}

func (c Conversation) HasParticipant(id uuid.UUID) bool {
	_, ok := c.Participant(id)
	return ok
}

func (c Conversation) Participant(id uuid.UUID) (Participant, bool) {
	for _, p := range c.Participants {
		if p.UserID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantIDs returns member ids, skipping except when it is not uuid.Nil.
func (c Conversation) ParticipantIDs(except uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if except != uuid.Nil && p.UserID == except {
			continue
		}
		ids = append(ids, p.UserID)
	}
	return ids
}
