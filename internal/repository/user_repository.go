package repository

import (
	"context"
	"fmt"
	"time"

	"hangoutz/internal/domain/user"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByPhone(ctx context.Context, phone string) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&u).Error
	if err != nil {
		return user.User{}, translate(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context, filter UserFilter) ([]user.User, int64, error) {
	var users []user.User
	var total int64

	page, limit := normalizePage(filter.Page, filter.Limit, 20, 100)

	q := r.db.WithContext(ctx).Model(&user.User{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("name ILIKE ? OR bio ILIKE ?", pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.
		Order("trust_score DESC").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u user.User) error {
	res := r.db.WithContext(ctx).
		Model(&u).
		Select("*").
		Omit("id", "created_at").
		Updates(&u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return hangoutz_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&user.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return hangoutz_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

func (r *PostgresUserRepository) IncrementActivity(ctx context.Context, id uuid.UUID, column ActivityColumn, delta int) error {
	switch column {
	case ActivityEventsHosted, ActivityEventsAttended, ActivityMessagesModerated:
	default:
		return fmt.Errorf("unknown activity column %q", column)
	}
	return r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", id).
		UpdateColumn(string(column), gorm.Expr("GREATEST("+string(column)+" + ?, 0)", delta)).Error
}
