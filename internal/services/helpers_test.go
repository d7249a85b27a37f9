package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/events"
	"hangoutz/internal/proxy"
	"hangoutz/internal/repository/memory"

	"github.com/google/uuid"
)

type recordingBroadcaster struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (b *recordingBroadcaster) Emit(ctx context.Context, env events.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envelopes = append(b.envelopes, env)
	return nil
}

// sent returns the envelopes carrying the named event, in emission order.
func (b *recordingBroadcaster) sent(event string) []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Envelope
	for _, env := range b.envelopes {
		if env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

func rooms(envs []events.Envelope) map[string]int {
	out := make(map[string]int, len(envs))
	for _, env := range envs {
		out[env.Room]++
	}
	return out
}

func decode[T any](t *testing.T, env events.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s: %v", env.Event, err)
	}
	return v
}

type fixture struct {
	store       *memory.Store
	access      *proxy.AccessControl
	broadcaster *recordingBroadcaster
	now         time.Time
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:       store,
		access:      proxy.NewAccessControl(store.Conversations()),
		broadcaster: &recordingBroadcaster{},
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

var phoneSeq int

func (f *fixture) user(t *testing.T, name string) user.User {
	t.Helper()
	phoneSeq++
	u := user.User{
		ID:         uuid.New(),
		Phone:      fmt.Sprintf("+1555000%04d", phoneSeq),
		Name:       name,
		PhotoURL:   "https://img.example/" + name + ".jpg",
		TrustScore: user.DefaultTrustScore,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	if err := f.store.Users().Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) conversations() *ConversationService {
	s := NewConversationService(f.store, f.access)
	s.now = func() time.Time { return f.now }
	return s
}

func (f *fixture) messages() *MessageService {
	s := NewMessageService(f.store, f.access, f.broadcaster, nil)
	s.now = func() time.Time { return f.now }
	return s
}

func (f *fixture) events(sticky bool) *EventService {
	s := NewEventService(f.store, f.access, f.broadcaster, sticky, nil)
	s.now = func() time.Time { return f.now }
	return s
}
