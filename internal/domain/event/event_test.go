package event

import (
	"errors"
	"strings"
	"testing"
	"time"

	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"before start", start.Add(-time.Minute), StatusUpcoming},
		{"at start", start, StatusOngoing},
		{"mid event", start.Add(2 * time.Hour), StatusOngoing},
		{"at assumed end", start.Add(AssumedDuration), StatusOngoing},
		{"after assumed end", start.Add(AssumedDuration + time.Second), StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(start, tc.now); got != tc.want {
				t.Fatalf("DeriveStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRefreshStatusOverwritesCancelledByDefault(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e := Event{DateTime: now.Add(24 * time.Hour), Status: StatusCancelled}

	e.RefreshStatus(now, false)
	if e.Status != StatusUpcoming {
		t.Fatalf("status = %q, want upcoming", e.Status)
	}

	e.Status = StatusCancelled
	e.RefreshStatus(now, true)
	if e.Status != StatusCancelled {
		t.Fatalf("sticky cancel lost, status = %q", e.Status)
	}
}

func validEvent(now time.Time) Event {
	return Event{
		ID:          uuid.New(),
		Title:       "Sunset run",
		Description: "Easy 5k around the lake, all paces welcome.",
		Location:    "Telibandha Lake",
		Latitude:    21.24,
		Longitude:   81.66,
		DateTime:    now.Add(48 * time.Hour),
		Category:    CategorySports,
		Tags:        []string{"running", "outdoors"},
		Status:      StatusUpcoming,
	}
}

func TestValidateNew(t *testing.T) {
	now := time.Now()

	if err := validEvent(now).ValidateNew(now); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	mutations := map[string]func(*Event){
		"short title":    func(e *Event) { e.Title = "Hi" },
		"long desc":      func(e *Event) { e.Description = strings.Repeat("x", 2001) },
		"no location":    func(e *Event) { e.Location = "" },
		"latitude":       func(e *Event) { e.Latitude = 91 },
		"longitude":      func(e *Event) { e.Longitude = -181 },
		"category":       func(e *Event) { e.Category = "Knitting" },
		"long tag":       func(e *Event) { e.Tags = []string{strings.Repeat("t", 31)} },
		"in the past":    func(e *Event) { e.DateTime = now.Add(-time.Hour) },
		"zero capacity":  func(e *Event) { zero := 0; e.MaxParticipants = &zero },
		"unknown status": func(e *Event) { e.Status = "postponed" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := validEvent(now)
			mutate(&e)
			err := e.ValidateNew(now)
			if !errors.Is(err, hangoutz_errors.ErrInvalidInput) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	limit := 2
	e := Event{MaxParticipants: &limit}
	a, b := uuid.New(), uuid.New()
	e.Participants = []Participant{{UserID: a}}
	if e.IsFull() {
		t.Fatalf("one of two should not be full")
	}
	e.Participants = append(e.Participants, Participant{UserID: b})
	if !e.IsFull() || !e.HasParticipant(b) {
		t.Fatalf("expected full event containing b")
	}

	e.MaxParticipants = nil
	if e.IsFull() {
		t.Fatalf("unlimited event reported full")
	}
}

func TestDistanceMeters(t *testing.T) {
	if d := DistanceMeters(21.25, 81.63, 21.25, 81.63); d != 0 {
		t.Fatalf("same point distance = %f", d)
	}
	// Raipur to Bhilai is roughly 25 km.
	d := DistanceMeters(21.2514, 81.6296, 21.1938, 81.3509)
	if d < 25000 || d > 35000 {
		t.Fatalf("distance = %f", d)
	}
}
