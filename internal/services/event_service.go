package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/events"
	"hangoutz/internal/proxy"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultEventMaxDistance = 50000
	defaultEventPageSize    = 20
)

type EventService struct {
	store           repository.Store
	access          *proxy.AccessControl
	broadcaster     events.Broadcaster
	logger          *zap.Logger
	stickyCancelled bool
	now             func() time.Time
}

func NewEventService(store repository.Store, access *proxy.AccessControl, broadcaster events.Broadcaster, stickyCancelled bool, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		store:           store,
		access:          access,
		broadcaster:     broadcaster,
		logger:          logger,
		stickyCancelled: stickyCancelled,
		now:             time.Now,
	}
}

type CreateEventInput struct {
	Title           string
	Description     string
	Location        string
	DateTime        time.Time
	Category        event.Category
	Lat             *float64
	Lng             *float64
	MaxParticipants *int
	Tags            []string
	ImageURL        string
}

// UpdateEventInput holds optional fields; nil leaves a field unchanged. A
// MaxParticipants value of zero or less removes the capacity.
type UpdateEventInput struct {
	Title           *string
	Description     *string
	Location        *string
	DateTime        *time.Time
	Category        *event.Category
	Lat             *float64
	Lng             *float64
	MaxParticipants *int
	Tags            []string
	Status          *event.Status
	ImageURL        *string
}

func (s *EventService) Create(ctx context.Context, host user.User, in CreateEventInput) (event.Event, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Location) == "" || in.DateTime.IsZero() || in.Category == "" {
		return event.Event{}, hangoutz_errors.Validation("Please provide all required fields")
	}
	if in.Lat == nil || in.Lng == nil {
		return event.Event{}, hangoutz_errors.Validation("Event coordinates are required")
	}

	now := s.now()
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = fmt.Sprintf("https://picsum.photos/seed/%d/800/400", now.UnixMilli())
	}

	snapshot := host.Snapshot()
	e := event.Event{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Location:        strings.TrimSpace(in.Location),
		Latitude:        *in.Lat,
		Longitude:       *in.Lng,
		DateTime:        in.DateTime,
		Category:        in.Category,
		ImageURL:        imageURL,
		Host:            event.NewHost(snapshot),
		MaxParticipants: normalizeCapacity(in.MaxParticipants),
		Tags:            datatypes.JSONSlice[string](nonNil(in.Tags)),
		Status:          event.StatusUpcoming,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.Participants = []event.Participant{event.NewParticipant(e.ID, snapshot, now)}
	e.RefreshStatus(now, s.stickyCancelled)

	if err := e.ValidateNew(now); err != nil {
		return event.Event{}, err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Events().Create(ctx, &e); err != nil {
			return err
		}
		return tx.Users().IncrementActivity(ctx, host.ID, repository.ActivityEventsHosted, 1)
	})
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func (s *EventService) GetByID(ctx context.Context, id uuid.UUID) (event.Event, error) {
	e, err := s.load(ctx, s.store, id, false)
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// List applies the listing defaults: upcoming events, 20 per page, newest
// first and a 50 km radius when coordinates are given.
func (s *EventService) List(ctx context.Context, filter repository.EventFilter) ([]event.Event, int64, error) {
	if filter.Status == "" {
		filter.Status = event.StatusUpcoming
	}
	if !filter.Status.Valid() {
		return nil, 0, hangoutz_errors.Validation("Invalid status")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, hangoutz_errors.Validation("Invalid category")
	}
	if filter.Near != nil && filter.MaxDistance <= 0 {
		filter.MaxDistance = DefaultEventMaxDistance
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultEventPageSize
	}
	filter.Now = s.now()
	filter.ExcludeCancelled = s.stickyCancelled

	list, total, err := s.store.Events().List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].RefreshStatus(filter.Now, s.stickyCancelled)
	}
	return list, total, nil
}

func (s *EventService) ListByUser(ctx context.Context, userID uuid.UUID, scope repository.EventScope) ([]event.Event, error) {
	switch scope {
	case repository.EventScopeHosted, repository.EventScopeJoined:
	default:
		scope = repository.EventScopeAll
	}

	list, err := s.store.Events().ListByUser(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		list[i].RefreshStatus(now, s.stickyCancelled)
	}
	return list, nil
}

func (s *EventService) Update(ctx context.Context, requester uuid.UUID, id uuid.UUID, in UpdateEventInput) (event.Event, error) {
	var updated event.Event
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		e, err := s.load(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := s.access.EnsureOwner(requester, e.Host.ID, "Not authorized to update this event"); err != nil {
			return err
		}

		applyEventUpdate(&e, in)
		if in.Status != nil {
			if !in.Status.Valid() {
				return hangoutz_errors.Validation("Invalid status")
			}
			e.Status = *in.Status
		}
		if err := s.save(ctx, tx, &e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, requester uuid.UUID, id uuid.UUID) error {
	e, err := s.load(ctx, s.store, id, false)
	if err != nil {
		return err
	}
	if err := s.access.EnsureOwner(requester, e.Host.ID, "Not authorized to delete this event"); err != nil {
		return err
	}
	if err := s.store.Events().Delete(ctx, id); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("Event not found")
		}
		return err
	}
	return nil
}

// Join adds the requester to the event and notifies the host. The event row
// is locked for the capacity and duplicate checks.
func (s *EventService) Join(ctx context.Context, requester user.User, id uuid.UUID) (event.Event, error) {
	snapshot := requester.Snapshot()

	var joined event.Event
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		e, err := s.load(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if e.IsFull() {
			return hangoutz_errors.Validation("Event is full")
		}
		if e.HasParticipant(requester.ID) {
			return hangoutz_errors.Validation("Already joined this event")
		}

		p := event.NewParticipant(e.ID, snapshot, s.now())
		if err := tx.Events().AddParticipant(ctx, &p); err != nil {
			if errors.Is(err, hangoutz_errors.ErrAlreadyExists) {
				return hangoutz_errors.Validation("Already joined this event")
			}
			return err
		}
		e.Participants = append(e.Participants, p)

		if err := s.save(ctx, tx, &e); err != nil {
			return err
		}
		if err := tx.Users().IncrementActivity(ctx, requester.ID, repository.ActivityEventsAttended, 1); err != nil {
			return err
		}
		joined = e
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}

	payload := events.NewParticipantPayload{EventID: joined.ID, Participant: snapshot}
	if err := events.NotifyUser(ctx, s.broadcaster, joined.Host.ID, events.EventNewParticipant, payload); err != nil {
		s.logger.Warn("failed to notify event host",
			zap.String("event_id", joined.ID.String()),
			zap.Error(err))
	}
	return joined, nil
}

func (s *EventService) Leave(ctx context.Context, requester uuid.UUID, id uuid.UUID) (event.Event, error) {
	var left event.Event
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		e, err := s.load(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if e.IsHost(requester) {
			return hangoutz_errors.Validation("Host cannot leave their own event")
		}
		if !e.HasParticipant(requester) {
			return hangoutz_errors.Validation("Not a participant of this event")
		}

		if err := tx.Events().RemoveParticipant(ctx, e.ID, requester); err != nil {
			if errors.Is(err, hangoutz_errors.ErrNotFound) {
				return hangoutz_errors.Validation("Not a participant of this event")
			}
			return err
		}
		kept := make([]event.Participant, 0, len(e.Participants))
		for _, p := range e.Participants {
			if p.UserID != requester {
				kept = append(kept, p)
			}
		}
		e.Participants = kept

		if err := s.save(ctx, tx, &e); err != nil {
			return err
		}
		if err := tx.Users().IncrementActivity(ctx, requester, repository.ActivityEventsAttended, -1); err != nil {
			return err
		}
		left = e
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}
	return left, nil
}

func (s *EventService) load(ctx context.Context, store repository.Store, id uuid.UUID, forUpdate bool) (event.Event, error) {
	var (
		e   event.Event
		err error
	)
	if forUpdate {
		e, err = store.Events().GetByIDForUpdate(ctx, id)
	} else {
		e, err = store.Events().GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return event.Event{}, hangoutz_errors.NotFound("Event not found")
		}
		return event.Event{}, err
	}
	e.RefreshStatus(s.now(), s.stickyCancelled)
	return e, nil
}

// save recomputes the status, validates and writes the event columns.
func (s *EventService) save(ctx context.Context, store repository.Store, e *event.Event) error {
	now := s.now()
	e.RefreshStatus(now, s.stickyCancelled)
	if err := e.Validate(); err != nil {
		return err
	}
	e.UpdatedAt = now
	if err := store.Events().Update(ctx, *e); err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return hangoutz_errors.NotFound("Event not found")
		}
		return err
	}
	return nil
}

func applyEventUpdate(e *event.Event, in UpdateEventInput) {
	if in.Title != nil && *in.Title != "" {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil && *in.Description != "" {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil && *in.Location != "" {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.DateTime != nil && !in.DateTime.IsZero() {
		e.DateTime = *in.DateTime
	}
	if in.Category != nil && *in.Category != "" {
		e.Category = *in.Category
	}
	if in.Lat != nil && in.Lng != nil {
		e.Latitude = *in.Lat
		e.Longitude = *in.Lng
	}
	if in.MaxParticipants != nil {
		e.MaxParticipants = normalizeCapacity(in.MaxParticipants)
	}
	if in.Tags != nil {
		e.Tags = datatypes.JSONSlice[string](in.Tags)
	}
	if in.ImageURL != nil && *in.ImageURL != "" {
		e.ImageURL = *in.ImageURL
	}
}

func normalizeCapacity(limit *int) *int {
	if limit == nil || *limit <= 0 {
		return nil
	}
	v := *limit
	return &v
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
