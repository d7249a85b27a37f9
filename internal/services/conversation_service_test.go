package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hangoutz/internal/domain/conversation"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func TestCreateOrGetDirectReturnsExisting(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.conversations()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	first, created, err := svc.CreateOrGetDirect(ctx, ana, ben.ID)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	if first.Type != conversation.TypeDirect || len(first.Participants) != 2 {
		t.Fatalf("unexpected conversation %+v", first)
	}
	if first.LastMessage != "" || !first.LastMessageAt.Equal(f.now) {
		t.Fatalf("expected empty last message state, got %q at %v", first.LastMessage, first.LastMessageAt)
	}
	for _, p := range first.Participants {
		if p.UnreadCount != 0 {
			t.Fatalf("expected zero unread for %s", p.UserID)
		}
	}

	again, created, err := svc.CreateOrGetDirect(ctx, ben, ana.ID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("expected existing conversation %s, got %s created=%v", first.ID, again.ID, created)
	}
}

func TestCreateOrGetDirectConcurrentCallersShareOneConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.conversations()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	const callers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[uuid.UUID]int{}
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			requester, other := ana, ben.ID
			if i%2 == 1 {
				requester, other = ben, ana.ID
			}
			c, isNew, err := svc.CreateOrGetDirect(ctx, requester, other)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			mu.Lock()
			ids[c.ID]++
			if isNew {
				created++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one conversation created once, got ids=%v created=%d", ids, created)
	}
}

func TestCreateOrGetDirectRejectsBadTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.conversations()
	ana := f.user(t, "ana")

	if _, _, err := svc.CreateOrGetDirect(ctx, ana, ana.ID); !errors.Is(err, hangoutz_errors.ErrInvalidInput) {
		t.Fatalf("expected validation error for self conversation, got %v", err)
	}
	_, _, err := svc.CreateOrGetDirect(ctx, ana, uuid.New())
	if !errors.Is(err, hangoutz_errors.ErrNotFound) || hangoutz_errors.Message(err) != "User not found" {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, _, err := svc.CreateOrGetDirect(ctx, ana, uuid.Nil); !errors.Is(err, hangoutz_errors.ErrInvalidInput) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.conversations()
	ana, ben, cleo := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "cleo")

	g, err := svc.CreateGroup(ctx, ana, "Chess club", []uuid.UUID{ben.ID, cleo.ID, ben.ID, ana.ID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Type != conversation.TypeGroup || len(g.Participants) != 3 || g.DirectKey.Valid {
		t.Fatalf("unexpected group %+v", g)
	}

	if _, err := svc.CreateGroup(ctx, ana, "Alone", []uuid.UUID{ana.ID}); !errors.Is(err, hangoutz_errors.ErrInvalidInput) {
		t.Fatalf("expected validation error for single member group, got %v", err)
	}
	if _, err := svc.CreateGroup(ctx, ana, "Ghosts", []uuid.UUID{uuid.New()}); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected not found for unknown member, got %v", err)
	}
}

func TestGetAndDeleteRequireMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, eve := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "eve")

	c, _, err := convs.CreateOrGetDirect(ctx, ana, ben.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m, err := msgs.Send(ctx, ana, c.ID, "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := convs.Get(ctx, eve.ID, c.ID); !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected forbidden get, got %v", err)
	}
	err = convs.Delete(ctx, eve.ID, c.ID)
	if !errors.Is(err, hangoutz_errors.ErrForbidden) || hangoutz_errors.Message(err) != "Not authorized to delete this conversation" {
		t.Fatalf("expected forbidden delete, got %v", err)
	}

	if err := convs.Delete(ctx, ben.ID, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := convs.Get(ctx, ben.ID, c.ID); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected deleted conversation to be gone, got %v", err)
	}
	if _, err := f.store.Messages().GetByID(ctx, m.ID); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected messages to be deleted with the conversation, got %v", err)
	}
}

func TestListConversationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, cleo := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "cleo")

	withBen, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)
	f.now = f.now.Add(time.Minute)
	withCleo, _, _ := convs.CreateOrGetDirect(ctx, ana, cleo.ID)

	f.now = f.now.Add(time.Minute)
	if _, err := msgs.Send(ctx, ben, withBen.ID, "ping", ""); err != nil {
		t.Fatalf("send: %v", err)
	}

	list, err := convs.List(ctx, ana.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two conversations, got %d", len(list))
	}
	if list[0].ID != withBen.ID || list[1].ID != withCleo.ID {
		t.Fatalf("unexpected order %s, %s", list[0].ID, list[1].ID)
	}

	if list, _ := convs.List(ctx, cleo.ID); len(list) != 1 {
		t.Fatalf("expected cleo to see one conversation, got %d", len(list))
	}
}
