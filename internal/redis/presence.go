package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// PresenceStore tracks which users hold at least one live socket, across
// instances. Each user has a hash of connection id -> last heartbeat. The hash
// expires unless a connection refreshes it, so a crashed instance cannot keep
// its users online forever.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

const connectionsKeyPrefix = "connections:"

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// SetOnline records the connection.
func (p *PresenceStore) SetOnline(ctx context.Context, userID uuid.UUID, clientID string) error {
	return p.heartbeat(ctx, userID, clientID)
}

// Refresh extends the lifetime of a live connection. The gateway calls it on
// every pong.
func (p *PresenceStore) Refresh(ctx context.Context, userID uuid.UUID, clientID string) error {
	return p.heartbeat(ctx, userID, clientID)
}

func (p *PresenceStore) heartbeat(ctx context.Context, userID uuid.UUID, clientID string) error {
	key := connectionsKeyPrefix + userID.String()
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, key, clientID, time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline drops the connection. The user stays online while any other
// connection remains.
func (p *PresenceStore) SetOffline(ctx context.Context, userID uuid.UUID, clientID string) error {
	return p.client.HDel(ctx, connectionsKeyPrefix+userID.String(), clientID).Err()
}

func (p *PresenceStore) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := p.client.HLen(ctx, connectionsKeyPrefix+userID.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
