package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"hangoutz/internal/domain/event"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
)

type eventRepo struct {
	db   *database
	inTx bool
}

func (r *eventRepo) Create(ctx context.Context, e *event.Event) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.events[e.ID]; ok {
		return hangoutz_errors.ErrAlreadyExists
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	for i := range e.Participants {
		e.Participants[i].EventID = e.ID
	}
	r.db.t.events[e.ID] = copyEvent(*e)
	r.db.t.stamp(e.ID)
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (event.Event, error) {
	defer r.db.lock(r.inTx)()

	e, ok := r.db.t.events[id]
	if !ok {
		return event.Event{}, hangoutz_errors.ErrNotFound
	}
	return copyEvent(e), nil
}

// GetByIDForUpdate needs no row lock: callers already hold the store's
// transaction mutex.
func (r *eventRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (event.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *eventRepo) Update(ctx context.Context, e event.Event) error {
	defer r.db.lock(r.inTx)()

	existing, ok := r.db.t.events[e.ID]
	if !ok {
		return hangoutz_errors.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()
	// participants are managed through Add/RemoveParticipant only
	e.Participants = existing.Participants
	r.db.t.events[e.ID] = copyEvent(e)
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	if _, ok := r.db.t.events[id]; !ok {
		return hangoutz_errors.ErrNotFound
	}
	delete(r.db.t.events, id)
	return nil
}

func (r *eventRepo) List(ctx context.Context, filter repository.EventFilter) ([]event.Event, int64, error) {
	defer r.db.lock(r.inTx)()

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	end := now.Add(-event.AssumedDuration)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	distance := func(e event.Event) float64 {
		return event.DistanceMeters(filter.Near.Lat, filter.Near.Lng, e.Latitude, e.Longitude)
	}

	var matched []event.Event
	for _, e := range r.db.t.events {
		switch filter.Status {
		case event.StatusUpcoming:
			if !e.DateTime.After(now) {
				continue
			}
		case event.StatusOngoing:
			if e.DateTime.After(now) || e.DateTime.Before(end) {
				continue
			}
		case event.StatusCompleted:
			if !e.DateTime.Before(end) {
				continue
			}
		case event.StatusCancelled:
			if e.Status != event.StatusCancelled {
				continue
			}
		}
		if filter.ExcludeCancelled && filter.Status != event.StatusCancelled && e.Status == event.StatusCancelled {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) &&
			!strings.Contains(strings.ToLower(e.Location), search) {
			continue
		}
		if filter.Near != nil && distance(e) > filter.MaxDistance {
			continue
		}
		matched = append(matched, copyEvent(e))
	}

	newest := func(a, b event.Event) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.db.t.order[a.ID] > r.db.t.order[b.ID]
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch filter.Sort {
		case "createdAt":
			return newest(b, a)
		case "dateTime":
			return a.DateTime.Before(b.DateTime)
		case "-dateTime":
			return a.DateTime.After(b.DateTime)
		case "distance":
			if filter.Near != nil {
				return distance(a) < distance(b)
			}
		}
		return newest(a, b)
	})

	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *eventRepo) ListByUser(ctx context.Context, userID uuid.UUID, scope repository.EventScope) ([]event.Event, error) {
	defer r.db.lock(r.inTx)()

	events := []event.Event{}
	for _, e := range r.db.t.events {
		hosted := e.IsHost(userID)
		joined := e.HasParticipant(userID)
		switch scope {
		case repository.EventScopeHosted:
			if !hosted {
				continue
			}
		case repository.EventScopeJoined:
			if !joined {
				continue
			}
		default:
			if !hosted && !joined {
				continue
			}
		}
		events = append(events, copyEvent(e))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].DateTime.Before(events[j].DateTime)
	})
	return events, nil
}

func (r *eventRepo) AddParticipant(ctx context.Context, p *event.Participant) error {
	defer r.db.lock(r.inTx)()

	e, ok := r.db.t.events[p.EventID]
	if !ok {
		return hangoutz_errors.ErrNotFound
	}
	if e.HasParticipant(p.UserID) {
		return hangoutz_errors.ErrAlreadyExists
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	e.Participants = append(e.Participants[:len(e.Participants):len(e.Participants)], *p)
	r.db.t.events[e.ID] = e
	return nil
}

func (r *eventRepo) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	defer r.db.lock(r.inTx)()

	e, ok := r.db.t.events[eventID]
	if !ok || !e.HasParticipant(userID) {
		return hangoutz_errors.ErrNotFound
	}
	kept := make([]event.Participant, 0, len(e.Participants)-1)
	for _, p := range e.Participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	e.Participants = kept
	r.db.t.events[eventID] = e
	return nil
}
