package events

import (
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"

	"github.com/google/uuid"
)

// Notifications emitted by the server
const (
	EventNewParticipant = "event:newParticipant"
	MessageNew          = "message:new"
	MessageDeleted      = "message:deleted"
	MessageRead         = "message:read"
	UserTyping          = "user:typing"
	UserStopTyping      = "user:stopTyping"
	UserStatus          = "user:status"
)

// Signals sent by clients over the socket
const (
	TypingStart       = "typing:start"
	TypingStop        = "typing:stop"
	ConversationJoin  = "conversation:join"
	ConversationLeave = "conversation:leave"
	UserOnline        = "user:online"
)

type NewParticipantPayload struct {
	EventID     uuid.UUID     `json:"eventId"`
	Participant user.Snapshot `json:"participant"`
}

type MessageNewPayload struct {
	ConversationID uuid.UUID       `json:"conversationId"`
	Message        message.Message `json:"message"`
}

type MessageReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	ReadBy    uuid.UUID `json:"readBy"`
}

type MessageDeletedPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
}

type TypingPayload struct {
	UserID         uuid.UUID `json:"userId"`
	UserName       string    `json:"userName,omitempty"`
	ConversationID uuid.UUID `json:"conversationId"`
}

type StatusPayload struct {
	UserID uuid.UUID `json:"userId"`
	Online bool      `json:"online"`
}

// ConversationSignal is the data of client typing and join/leave frames.
type ConversationSignal struct {
	ConversationID string `json:"conversationId"`
}
