package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BroadcastRoom addresses every connected client.
const BroadcastRoom = "broadcast"

func UserRoom(id uuid.UUID) string {
	return "user:" + id.String()
}

func ConversationRoom(id uuid.UUID) string {
	return "conversation:" + id.String()
}

// Envelope is one emission addressed to a room. ExceptClient, when set, is the
// connection that originated the signal and must not receive it back.
type Envelope struct {
	Room         string          `json:"room"`
	Event        string          `json:"event"`
	Data         json.RawMessage `json:"data"`
	ExceptClient string          `json:"except_client,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Frame is the wire shape seen by socket clients in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(room, event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return Envelope{Room: room, Event: event, Data: raw, OccurredAt: time.Now().UTC()}, nil
}

func (e Envelope) Frame() ([]byte, error) {
	return json.Marshal(Frame{Event: e.Event, Data: e.Data})
}

// Broadcaster delivers envelopes to room members. Delivery is fire and
// forget: rooms without live connections drop the envelope.
type Broadcaster interface {
	Emit(ctx context.Context, env Envelope) error
}

func NotifyUser(ctx context.Context, b Broadcaster, userID uuid.UUID, event string, data any) error {
	return emit(ctx, b, UserRoom(userID), event, data)
}

func emit(ctx context.Context, b Broadcaster, room, event string, data any) error {
	if b == nil {
		return nil
	}
	env, err := NewEnvelope(room, event, data)
	if err != nil {
		return err
	}
	return b.Emit(ctx, env)
}
