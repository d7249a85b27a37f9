package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	u := user.User{ID: uuid.New(), Phone: "+15550001", Name: "Ana"}

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, &u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Users().GetByID(ctx, u.ID); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected user to be rolled back, got %v", err)
	}
}

func TestRollbackKeepsWritesMadeOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	outside := user.User{ID: uuid.New(), Phone: "+15550002", Name: "Bo"}

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.Transaction(ctx, func(tx repository.Store) error {
			close(started)
			<-release
			return errors.New("event is full")
		})
	}()
	<-started

	written := make(chan error, 1)
	go func() {
		written <- store.Users().Create(ctx, &outside)
	}()

	// Give the outside write a chance to run while the transaction is open.
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-txDone; err == nil {
		t.Fatal("expected transaction error")
	}
	if err := <-written; err != nil {
		t.Fatalf("create outside transaction: %v", err)
	}
	if _, err := store.Users().GetByID(ctx, outside.ID); err != nil {
		t.Fatalf("write made outside the transaction was lost: %v", err)
	}
}

func TestConversationDirectKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	a, b := uuid.New(), uuid.New()
	key := sql.NullString{String: conversation.DirectKey(a, b), Valid: true}

	first := conversation.Conversation{ID: uuid.New(), Type: conversation.TypeDirect, DirectKey: key}
	if err := store.Conversations().Create(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := conversation.Conversation{ID: uuid.New(), Type: conversation.TypeDirect, DirectKey: key}
	if err := store.Conversations().Create(ctx, &second); !errors.Is(err, hangoutz_errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	found, err := store.Conversations().GetDirect(ctx, b, a)
	if err != nil {
		t.Fatalf("get direct: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("expected %s, got %s", first.ID, found.ID)
	}
}

func TestRecordMessageBumpsOthersOnly(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	conv := conversation.Conversation{ID: uuid.New(), Type: conversation.TypeGroup}
	for _, id := range []uuid.UUID{a, b, c} {
		conv.Participants = append(conv.Participants, conversation.Participant{UserID: id, JoinedAt: now})
	}
	if err := store.Conversations().Create(ctx, &conv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Conversations().RecordMessage(ctx, conv.ID, a, "hi", now); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, _ := store.Conversations().GetByID(ctx, conv.ID)
	counts := map[string]int{}
	for _, p := range got.Participants {
		counts[p.UserID.String()] = p.UnreadCount
	}
	if counts[a.String()] != 0 || counts[b.String()] != 1 || counts[c.String()] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}
	if got.LastMessage != "hi" {
		t.Fatalf("expected preview hi, got %q", got.LastMessage)
	}
}

func TestAddReaderIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	conv := conversation.Conversation{ID: uuid.New(), Type: conversation.TypeGroup}
	_ = store.Conversations().Create(ctx, &conv)
	m := message.Message{ID: uuid.New(), ConversationID: conv.ID, Body: "x", Type: message.TypeText}
	if err := store.Messages().Create(ctx, &m); err != nil {
		t.Fatalf("create: %v", err)
	}

	reader := uuid.New()
	inserted, err := store.Messages().AddReader(ctx, message.Receipt{MessageID: m.ID, UserID: reader})
	if err != nil || !inserted {
		t.Fatalf("first read: inserted=%v err=%v", inserted, err)
	}
	inserted, err = store.Messages().AddReader(ctx, message.Receipt{MessageID: m.ID, UserID: reader})
	if err != nil || inserted {
		t.Fatalf("second read: inserted=%v err=%v", inserted, err)
	}

	got, _ := store.Messages().GetByID(ctx, m.ID)
	if !got.IsRead || len(got.ReadBy) != 1 {
		t.Fatalf("expected one receipt, got %+v", got.ReadBy)
	}
}

func TestEventListStatusWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	starts := map[string]time.Time{
		"future":  now.Add(time.Hour),
		"running": now.Add(-2 * time.Hour),
		"past":    now.Add(-5 * time.Hour),
	}
	for title, start := range starts {
		e := event.Event{ID: uuid.New(), Title: title, DateTime: start, Category: event.CategoryOther, Status: event.StatusUpcoming}
		if err := store.Events().Create(ctx, &e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cases := map[event.Status]string{
		event.StatusUpcoming:  "future",
		event.StatusOngoing:   "running",
		event.StatusCompleted: "past",
	}
	for status, want := range cases {
		got, total, err := store.Events().List(ctx, repository.EventFilter{Status: status, Now: now})
		if err != nil {
			t.Fatalf("list %s: %v", status, err)
		}
		if total != 1 || len(got) != 1 || got[0].Title != want {
			t.Errorf("status %s: expected %s, got %+v", status, want, got)
		}
	}
}

func TestOTPStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewOTPStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	_ = store.Save(ctx, "+1555", "hash", time.Minute)
	if got, err := store.Get(ctx, "+1555"); err != nil || got != "hash" {
		t.Fatalf("expected hash, got %q err=%v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "+1555"); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected expired code, got %v", err)
	}
}
