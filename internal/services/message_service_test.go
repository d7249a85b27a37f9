package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/events"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func unread(t *testing.T, f *fixture, convID uuid.UUID) map[string]int {
	t.Helper()
	c, err := f.store.Conversations().GetByID(context.Background(), convID)
	if err != nil {
		t.Fatalf("load conversation: %v", err)
	}
	out := make(map[string]int, len(c.Participants))
	for _, p := range c.Participants {
		out[p.UserID.String()] = p.UnreadCount
	}
	return out
}

func TestSendMessageUpdatesCountersAndNotifiesOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, cleo := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "cleo")

	group, err := convs.CreateGroup(ctx, ana, "Brunch", []uuid.UUID{ben.ID, cleo.ID})
	if err != nil {
		t.Fatalf("group: %v", err)
	}

	m, err := msgs.Send(ctx, ana, group.ID, "  brunch at 11?  ", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.Body != "brunch at 11?" || m.Type != message.TypeText || m.SenderName != "ana" || m.IsModerated {
		t.Fatalf("unexpected message %+v", m)
	}

	counts := unread(t, f, group.ID)
	if counts[ana.ID.String()] != 0 || counts[ben.ID.String()] != 1 || counts[cleo.ID.String()] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}
	stored, _ := f.store.Conversations().GetByID(ctx, group.ID)
	if stored.LastMessage != "brunch at 11?" || !stored.LastMessageAt.Equal(f.now) {
		t.Fatalf("unexpected last message %q at %v", stored.LastMessage, stored.LastMessageAt)
	}

	sent := f.broadcaster.sent(events.MessageNew)
	got := rooms(sent)
	if len(sent) != 2 || got[events.UserRoom(ben.ID)] != 1 || got[events.UserRoom(cleo.ID)] != 1 {
		t.Fatalf("expected one message:new per other participant, got %v", got)
	}
	payload := decode[events.MessageNewPayload](t, sent[0])
	if payload.ConversationID != group.ID || payload.Message.ID != m.ID {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestConcurrentSendsNeverLoseUnreadIncrements(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := msgs.Send(ctx, ana, c.ID, fmt.Sprintf("message %d", i), "")
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	if got := unread(t, f, c.ID)[ben.ID.String()]; got != n {
		t.Fatalf("expected %d unread, got %d", n, got)
	}
}

func TestSendMessageModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)

	_, err := msgs.Send(ctx, ana, c.ID, "this is a scam", "")
	if !errors.Is(err, hangoutz_errors.ErrInvalidInput) || hangoutz_errors.Message(err) != "Message contains inappropriate content" {
		t.Fatalf("expected rejection, got %v", err)
	}
	if got := unread(t, f, c.ID)[ben.ID.String()]; got != 0 {
		t.Fatalf("rejected message must not bump counters, got %d", got)
	}
	if len(f.broadcaster.sent(events.MessageNew)) != 0 {
		t.Fatal("rejected message must not be broadcast")
	}

	m, err := msgs.Send(ctx, ana, c.ID, "yaaaaaay see you there", "")
	if err != nil {
		t.Fatalf("low severity message should be stored: %v", err)
	}
	if !m.IsModerated || m.ModerationFlag != "Suspicious repeated characters" {
		t.Fatalf("expected moderation flag, got %+v", m)
	}
	sender, _ := f.store.Users().GetByID(ctx, ana.ID)
	if sender.MessagesModerated != 1 {
		t.Fatalf("expected moderated counter 1, got %d", sender.MessagesModerated)
	}
}

func TestSendMessageChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, eve := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "eve")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)

	cases := []struct {
		name   string
		sender user.User
		convID uuid.UUID
		body   string
		typ    message.Type
		kind   error
	}{
		{"outsider", eve, c.ID, "hi", "", hangoutz_errors.ErrForbidden},
		{"unknown conversation", ana, uuid.New(), "hi", "", hangoutz_errors.ErrNotFound},
		{"blank body", ana, c.ID, "   ", "", hangoutz_errors.ErrInvalidInput},
		{"bad type", ana, c.ID, "hi", "video", hangoutz_errors.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := msgs.Send(ctx, tc.sender, tc.convID, tc.body, tc.typ); !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestMarkConversationReadResetsOnlyRequester(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, cleo := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "cleo")
	g, _ := convs.CreateGroup(ctx, ana, "Hike", []uuid.UUID{ben.ID, cleo.ID})

	_, _ = msgs.Send(ctx, ana, g.ID, "trail at 8", "")
	_, _ = msgs.Send(ctx, ben, g.ID, "in", "")

	if err := convs.MarkRead(ctx, cleo.ID, g.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	counts := unread(t, f, g.ID)
	if counts[cleo.ID.String()] != 0 || counts[ana.ID.String()] != 1 || counts[ben.ID.String()] != 1 {
		t.Fatalf("unexpected counters %v", counts)
	}

	if err := convs.MarkRead(ctx, uuid.New(), g.ID); !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestMarkMessageReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)
	m, _ := msgs.Send(ctx, ana, c.ID, "hello", "")

	own, err := msgs.MarkRead(ctx, ana.ID, m.ID)
	if err != nil || own.Recorded || own.Message != "Own message, no action needed" {
		t.Fatalf("own read: %+v err=%v", own, err)
	}

	for i := 0; i < 3; i++ {
		res, err := msgs.MarkRead(ctx, ben.ID, m.ID)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if res.Recorded != (i == 0) || res.Message != "Message marked as read" {
			t.Fatalf("read %d: unexpected result %+v", i, res)
		}
	}

	stored, _ := f.store.Messages().GetByID(ctx, m.ID)
	if !stored.IsRead || len(stored.ReadBy) != 1 || stored.ReadBy[0].UserID != ben.ID {
		t.Fatalf("expected one receipt from ben, got %+v", stored.ReadBy)
	}

	reads := f.broadcaster.sent(events.MessageRead)
	if len(reads) != 1 || reads[0].Room != events.UserRoom(ana.ID) {
		t.Fatalf("expected one notification to the sender, got %v", rooms(reads))
	}
	payload := decode[events.MessageReadPayload](t, reads[0])
	if payload.MessageID != m.ID || payload.ReadBy != ben.ID {
		t.Fatalf("unexpected payload %+v", payload)
	}

	if _, err := msgs.MarkRead(ctx, ben.ID, uuid.New()); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteMessageNotifiesEveryParticipant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)
	m, _ := msgs.Send(ctx, ana, c.ID, "oops", "")

	err := msgs.Delete(ctx, ben.ID, m.ID)
	if !errors.Is(err, hangoutz_errors.ErrForbidden) || hangoutz_errors.Message(err) != "Not authorized to delete this message" {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := msgs.Delete(ctx, ana.ID, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := rooms(f.broadcaster.sent(events.MessageDeleted))
	if len(got) != 2 || got[events.UserRoom(ana.ID)] != 1 || got[events.UserRoom(ben.ID)] != 1 {
		t.Fatalf("expected deleter and other participant notified, got %v", got)
	}

	if err := msgs.Delete(ctx, ana.ID, m.ID); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListMessagesPagesBackwards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	convs, msgs := f.conversations(), f.messages()
	ana, ben, eve := f.user(t, "ana"), f.user(t, "ben"), f.user(t, "eve")
	c, _, _ := convs.CreateOrGetDirect(ctx, ana, ben.ID)

	start := f.now
	for i := 0; i < 5; i++ {
		f.now = start.Add(time.Duration(i) * time.Minute)
		if _, err := msgs.Send(ctx, ana, c.ID, fmt.Sprintf("m%d", i), ""); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	latest, err := msgs.List(ctx, ben.ID, c.ID, 2, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(latest) != 2 || latest[0].Body != "m3" || latest[1].Body != "m4" {
		t.Fatalf("unexpected page %v", bodies(latest))
	}

	before := latest[0].CreatedAt
	older, err := msgs.List(ctx, ben.ID, c.ID, 0, &before)
	if err != nil {
		t.Fatalf("list older: %v", err)
	}
	if len(older) != 3 || older[0].Body != "m0" || older[2].Body != "m2" {
		t.Fatalf("unexpected older page %v", bodies(older))
	}

	_, err = msgs.List(ctx, eve.ID, c.ID, 10, nil)
	if !errors.Is(err, hangoutz_errors.ErrForbidden) || hangoutz_errors.Message(err) != "Not authorized to view these messages" {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func bodies(list []message.Message) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.Body
	}
	return out
}
