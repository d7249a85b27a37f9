package repository

import (
	"context"
	"time"

	"hangoutz/internal/domain/message"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Preload("ReadBy", func(tx *gorm.DB) *gorm.DB { return tx.Order("read_at ASC") }).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return message.Message{}, translate(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]message.Message, error) {
	var messages []message.Message

	q := r.db.WithContext(ctx).
		Preload("ReadBy").
		Where("conversation_id = ?", conversationID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}

	// newest-first from the query, callers want chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *PostgresMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&message.Receipt{}, "message_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&message.Message{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return hangoutz_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresMessageRepository) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&message.Message{}).Select("id").Where("conversation_id = ?", conversationID)
		if err := tx.Where("message_id IN (?)", ids).Delete(&message.Receipt{}).Error; err != nil {
			return err
		}
		return tx.Where("conversation_id = ?", conversationID).Delete(&message.Message{}).Error
	})
}

func (r *PostgresMessageRepository) AddReader(ctx context.Context, receipt message.Receipt) (bool, error) {
	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipt)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return tx.Model(&message.Message{}).
			Where("id = ?", receipt.MessageID).
			UpdateColumn("is_read", true).Error
	})
	return inserted, err
}
