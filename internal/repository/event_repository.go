package repository

import (
	"context"
	"time"

	"hangoutz/internal/domain/event"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresEventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

// haversineSQL computes metres between the row coordinates and (?, ?, ?) = (lat, lat, lng).
const haversineSQL = `(2 * 6371000 * asin(least(1, sqrt(
	power(sin(radians(latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)))))`

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Participants", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("joined_at ASC")
	})
}

func (r *PostgresEventRepository) Create(ctx context.Context, e *event.Event) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (event.Event, error) {
	var e event.Event
	err := preloadParticipants(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return event.Event{}, translate(err)
	}
	return e, nil
}

func (r *PostgresEventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (event.Event, error) {
	var e event.Event
	err := preloadParticipants(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return event.Event{}, translate(err)
	}
	return e, nil
}

func (r *PostgresEventRepository) Update(ctx context.Context, e event.Event) error {
	res := r.db.WithContext(ctx).
		Model(&e).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&e)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return hangoutz_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&event.Participant{}, "event_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&event.Event{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return hangoutz_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]event.Event, int64, error) {
	var events []event.Event
	var total int64

	page, limit := normalizePage(filter.Page, filter.Limit, 20, 100)
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	end := now.Add(-event.AssumedDuration)

	q := r.db.WithContext(ctx).Model(&event.Event{})

	switch filter.Status {
	case event.StatusUpcoming:
		q = q.Where("date_time > ?", now)
	case event.StatusOngoing:
		q = q.Where("date_time <= ? AND date_time >= ?", now, end)
	case event.StatusCompleted:
		q = q.Where("date_time < ?", end)
	case event.StatusCancelled:
		q = q.Where("status = ?", event.StatusCancelled)
	}
	if filter.ExcludeCancelled && filter.Status != event.StatusCancelled {
		q = q.Where("status <> ?", event.StatusCancelled)
	}

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("title ILIKE ? OR description ILIKE ? OR location ILIKE ?", pattern, pattern, pattern)
	}

	if filter.Near != nil {
		q = q.Where(haversineSQL+" <= ?", filter.Near.Lat, filter.Near.Lat, filter.Near.Lng, filter.MaxDistance)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = preloadParticipants(q)
	switch filter.Sort {
	case "createdAt":
		q = q.Order("created_at ASC")
	case "dateTime":
		q = q.Order("date_time ASC")
	case "-dateTime":
		q = q.Order("date_time DESC")
	case "distance":
		if filter.Near != nil {
			q = q.Order(clause.Expr{SQL: haversineSQL + " ASC", Vars: []interface{}{filter.Near.Lat, filter.Near.Lat, filter.Near.Lng}})
		} else {
			q = q.Order("created_at DESC")
		}
	default:
		q = q.Order("created_at DESC")
	}

	if err := q.
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *PostgresEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, scope EventScope) ([]event.Event, error) {
	var events []event.Event

	joined := r.db.Model(&event.Participant{}).
		Select("event_id").
		Where("user_id = ?", userID)

	q := preloadParticipants(r.db.WithContext(ctx))
	switch scope {
	case EventScopeHosted:
		q = q.Where("host_id = ?", userID)
	case EventScopeJoined:
		q = q.Where("id IN (?)", joined)
	default:
		q = q.Where("host_id = ? OR id IN (?)", userID, joined)
	}

	if err := q.Order("date_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresEventRepository) AddParticipant(ctx context.Context, p *event.Participant) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PostgresEventRepository) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&event.Participant{}, "event_id = ? AND user_id = ?", eventID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return hangoutz_errors.ErrNotFound
	}
	return nil
}
