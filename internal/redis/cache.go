package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hangoutz/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// UserCache keeps serialized users under user:{id} for the credential check
// that runs on every authenticated request and socket handshake.
type UserCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUserCache(client *goredis.Client, ttl time.Duration) *UserCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{client: client, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// cachedUser carries the fields that are hidden from API JSON.
type cachedUser struct {
	user.User
	LastActive        *time.Time `json:"last_active,omitempty"`
	EventsHosted      int        `json:"events_hosted"`
	EventsAttended    int        `json:"events_attended"`
	MessagesModerated int        `json:"messages_moderated"`
}

// GetUser returns (nil, nil) on a cache miss
func (c *UserCache) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	u := cached.User
	u.EventsHosted = cached.EventsHosted
	u.EventsAttended = cached.EventsAttended
	u.MessagesModerated = cached.MessagesModerated
	if cached.LastActive != nil {
		u.LastActive.Time = *cached.LastActive
		u.LastActive.Valid = true
	}
	return &u, nil
}

func (c *UserCache) SetUser(ctx context.Context, u user.User) error {
	cached := cachedUser{
		User:              u,
		EventsHosted:      u.EventsHosted,
		EventsAttended:    u.EventsAttended,
		MessagesModerated: u.MessagesModerated,
	}
	if u.LastActive.Valid {
		cached.LastActive = &u.LastActive.Time
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(u.ID), data, c.ttl).Err()
}

func (c *UserCache) InvalidateUser(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, userKey(id)).Err()
}
