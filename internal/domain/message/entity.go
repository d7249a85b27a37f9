package message

import (
	"strings"
	"time"
	"unicode/utf8"

	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

const MaxBodyLength = 5000

type Type string

const (
	TypeText   Type = "text"
	TypeImage  Type = "image"
	TypeSystem Type = "system"
)

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeSystem:
		return true
	}
	return false
}

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1" json:"conversationId"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"senderId"`
	SenderName     string    `json:"senderName"`
	Body           string    `gorm:"not null" json:"message"`
	Type           Type      `gorm:"not null;default:text" json:"type"`
	IsRead         bool      `gorm:"not null;default:false" json:"isRead"`
	IsModerated    bool      `gorm:"not null;default:false" json:"isModerated"`
	ModerationFlag string    `json:"moderationFlag,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"createdAt"`

	// Relationships
	ReadBy []Receipt `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"readBy"`
}

// Receipt represents the message_receipts table. The composite key makes a
// second read by the same user a no-op.
type Receipt struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	ReadAt    time.Time `json:"readAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (Receipt) TableName() string {
	return "message_receipts"
}

// NormalizeBody trims the body and checks the 1..5000 character bound.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	n := utf8.RuneCountInString(body)
	if n == 0 {
		return "", hangoutz_errors.Validation("Message is required")
	}
	if n > MaxBodyLength {
		return "", hangoutz_errors.Validation("Message cannot exceed 5000 characters")
	}
	return body, nil
}

func (m Message) ReadByUser(id uuid.UUID) bool {
	for _, r := range m.ReadBy {
		if r.UserID == id {
			return true
		}
	}
	return false
}
