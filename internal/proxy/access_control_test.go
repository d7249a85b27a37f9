package proxy

import (
	"context"
	"errors"
	"testing"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/repository/memory"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func TestIsOwner(t *testing.T) {
	ac := NewAccessControl(nil)
	id := uuid.New()

	if !ac.IsOwner(id, id) {
		t.Error("expected caller to own its own resource")
	}
	if ac.IsOwner(uuid.New(), id) {
		t.Error("expected a different caller not to own the resource")
	}
	if ac.IsOwner(uuid.Nil, uuid.Nil) {
		t.Error("anonymous caller must never own anything")
	}

	err := ac.EnsureOwner(uuid.New(), id, "Not authorized to update this event")
	if !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if hangoutz_errors.Message(err) != "Not authorized to update this event" {
		t.Errorf("unexpected message %q", hangoutz_errors.Message(err))
	}
}

func TestLoadConversation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ac := NewAccessControl(store.Conversations())

	member, outsider := uuid.New(), uuid.New()
	c := conversation.Conversation{
		ID:           uuid.New(),
		Type:         conversation.TypeGroup,
		Participants: []conversation.Participant{{UserID: member}},
	}
	if err := store.Conversations().Create(ctx, &c); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := ac.LoadConversation(ctx, c.ID, member, "nope"); err != nil {
		t.Fatalf("member should load conversation: %v", err)
	}
	if _, err := ac.LoadConversation(ctx, c.ID, outsider, "nope"); !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err := ac.LoadConversation(ctx, uuid.New(), member, "nope")
	if !errors.Is(err, hangoutz_errors.ErrNotFound) || hangoutz_errors.Message(err) != "Conversation not found" {
		t.Fatalf("expected conversation not found, got %v", err)
	}

	if err := ac.CanJoinRoom(ctx, outsider, c.ID); !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected outsider to be refused, got %v", err)
	}
}
