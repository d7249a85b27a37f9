package services

import (
	"context"
	"errors"
	"testing"

	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func (f *fixture) users() *UserService {
	return NewUserService(f.store, f.access, nil)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.users()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	bio := "climber"
	_, err := svc.UpdateProfile(ctx, ben.ID, ana.ID, UpdateUserInput{Bio: &bio})
	if !errors.Is(err, hangoutz_errors.ErrForbidden) || hangoutz_errors.Message(err) != "Not authorized to update this profile" {
		t.Fatalf("expected forbidden, got %v", err)
	}

	name := ""
	got, err := svc.UpdateProfile(ctx, ana.ID, ana.ID, UpdateUserInput{
		Name:   &name,
		Bio:    &bio,
		Photos: []string{"https://img.example/a1.jpg", "https://img.example/a2.jpg"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "ana" || got.Bio != "climber" {
		t.Fatalf("empty name must be ignored, got name=%q bio=%q", got.Name, got.Bio)
	}
	if got.PhotoURL != "https://img.example/a1.jpg" || !got.CompletedProfile {
		t.Fatalf("expected first photo as primary and completed profile, got %+v", got)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.users()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	if err := svc.Block(ctx, ana.ID, ana.ID, ana.ID); hangoutz_errors.Message(err) != "You cannot block yourself" {
		t.Fatalf("expected self block rejection, got %v", err)
	}
	if err := svc.Block(ctx, ana.ID, ana.ID, uuid.New()); hangoutz_errors.Message(err) != "User to block not found" {
		t.Fatalf("expected unknown target rejection, got %v", err)
	}
	if err := svc.Block(ctx, ben.ID, ana.ID, ben.ID); !errors.Is(err, hangoutz_errors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Block(ctx, ana.ID, ana.ID, ben.ID); err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
	}
	got, _ := svc.GetByID(ctx, ana.ID)
	if !got.HasBlocked(ben.ID) || len(got.BlockedUsers) != 1 {
		t.Fatalf("expected ben blocked once, got %v", got.BlockedUsers)
	}

	if err := svc.Unblock(ctx, ana.ID, ana.ID, ben.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	got, _ = svc.GetByID(ctx, ana.ID)
	if got.HasBlocked(ben.ID) {
		t.Fatal("expected ben unblocked")
	}
}

func TestSubmitVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.users()
	ana := f.user(t, "ana")

	if _, err := svc.SubmitVerification(ctx, ana.ID, ana.ID, " "); hangoutz_errors.Message(err) != "Verification photo is required" {
		t.Fatalf("expected missing photo error, got %v", err)
	}

	got, err := svc.SubmitVerification(ctx, ana.ID, ana.ID, "https://img.example/selfie.jpg")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !got.Verified || got.TrustScore <= ana.TrustScore || got.TrustScore > 100 {
		t.Fatalf("expected verified user with a higher score, got verified=%v score=%d", got.Verified, got.TrustScore)
	}
}

func TestListUsersHidesBlockLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.users()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")
	_ = svc.Block(ctx, ana.ID, ana.ID, ben.ID)

	list, total, err := svc.List(ctx, repository.UserFilter{Search: "AN"})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("expected one match, got total=%d err=%v", total, err)
	}
	if len(list[0].BlockedUsers) != 0 {
		t.Fatalf("expected blocked users hidden, got %v", list[0].BlockedUsers)
	}
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.users()
	ana, ben := f.user(t, "ana"), f.user(t, "ben")

	if err := svc.Delete(ctx, ben.ID, ana.ID); hangoutz_errors.Message(err) != "Not authorized to delete this account" {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, ana.ID, ana.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, ana.ID); !errors.Is(err, hangoutz_errors.ErrNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}
}
