package repository

import (
	"context"

	"gorm.io/gorm"
)

type PostgresStore struct {
	db            *gorm.DB
	users         UserRepository
	events        EventRepository
	conversations ConversationRepository
	messages      MessageRepository
}

func NewStore(db *gorm.DB) Store {
	return &PostgresStore{
		db:            db,
		users:         NewUserRepository(db),
		events:        NewEventRepository(db),
		conversations: NewConversationRepository(db),
		messages:      NewMessageRepository(db),
	}
}

func (s *PostgresStore) Users() UserRepository                 { return s.users }
func (s *PostgresStore) Events() EventRepository               { return s.events }
func (s *PostgresStore) Conversations() ConversationRepository { return s.conversations }
func (s *PostgresStore) Messages() MessageRepository           { return s.messages }

// Transaction runs fn against repositories bound to one database transaction.
func (s *PostgresStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
