// Package memory is an in-process implementation of repository.Store used for
// local runs without PostgreSQL (DB_DRIVER=memory) and by service tests.
package memory

import (
	"context"
	"sync"

	"hangoutz/internal/domain/conversation"
	"hangoutz/internal/domain/event"
	"hangoutz/internal/domain/message"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/repository"

	"github.com/google/uuid"
)

type tables struct {
	users         map[uuid.UUID]user.User
	events        map[uuid.UUID]event.Event
	conversations map[uuid.UUID]conversation.Conversation
	messages      map[uuid.UUID]message.Message
	// insertion order, used to break timestamp ties
	order map[uuid.UUID]uint64
	seq   uint64
}

func newTables() *tables {
	return &tables{
		users:         make(map[uuid.UUID]user.User),
		events:        make(map[uuid.UUID]event.Event),
		conversations: make(map[uuid.UUID]conversation.Conversation),
		messages:      make(map[uuid.UUID]message.Message),
		order:         make(map[uuid.UUID]uint64),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range t.events {
		c.events[k] = copyEvent(v)
	}
	for k, v := range t.conversations {
		c.conversations[k] = copyConversation(v)
	}
	for k, v := range t.messages {
		c.messages[k] = copyMessage(v)
	}
	for k, v := range t.order {
		c.order[k] = v
	}
	c.seq = t.seq
	return c
}

func (t *tables) stamp(id uuid.UUID) {
	t.seq++
	t.order[id] = t.seq
}

type database struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    *tables
}

// lock guards one repository call. Calls made outside a transaction also
// wait for any running transaction, so a rollback never overwrites them.
func (d *database) lock(inTx bool) func() {
	if !inTx {
		d.txMu.Lock()
	}
	d.mu.Lock()
	return func() {
		d.mu.Unlock()
		if !inTx {
			d.txMu.Unlock()
		}
	}
}

// Store implements repository.Store over maps guarded by one mutex.
// Transactions are serialized against every other call and roll back by
// restoring a snapshot.
type Store struct {
	db   *database
	inTx bool
}

func NewStore() *Store {
	return &Store{db: &database{t: newTables()}}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{db: s.db, inTx: s.inTx}
}

func (s *Store) Events() repository.EventRepository {
	return &eventRepo{db: s.db, inTx: s.inTx}
}

func (s *Store) Conversations() repository.ConversationRepository {
	return &conversationRepo{db: s.db, inTx: s.inTx}
}

func (s *Store) Messages() repository.MessageRepository {
	return &messageRepo{db: s.db, inTx: s.inTx}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	snapshot := s.db.t.clone()
	s.db.mu.Unlock()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.t = snapshot
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func copyUser(u user.User) user.User {
	u.Photos = append(u.Photos[:0:0], u.Photos...)
	u.Interests = append(u.Interests[:0:0], u.Interests...)
	u.BlockedUsers = append(u.BlockedUsers[:0:0], u.BlockedUsers...)
	return u
}

func copyEvent(e event.Event) event.Event {
	e.Participants = append(e.Participants[:0:0], e.Participants...)
	e.Tags = append(e.Tags[:0:0], e.Tags...)
	if e.MaxParticipants != nil {
		limit := *e.MaxParticipants
		e.MaxParticipants = &limit
	}
	return e
}

func copyConversation(c conversation.Conversation) conversation.Conversation {
	c.Participants = append(c.Participants[:0:0], c.Participants...)
	return c
}

func copyMessage(m message.Message) message.Message {
	m.ReadBy = append(m.ReadBy[:0:0], m.ReadBy...)
	return m
}
