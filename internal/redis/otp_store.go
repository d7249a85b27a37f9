package redis

import (
	"context"
	"time"

	hangoutz_errors "hangoutz/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// OTPStore keeps hashed one-time codes under otp:{phone} with a TTL.
type OTPStore struct {
	client *goredis.Client
}

func NewOTPStore(client *goredis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

func (s *OTPStore) Save(ctx context.Context, phone, hash string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(phone), hash, ttl).Err()
}

func (s *OTPStore) Get(ctx context.Context, phone string) (string, error) {
	hash, err := s.client.Get(ctx, otpKey(phone)).Result()
	if err == goredis.Nil {
		return "", hangoutz_errors.ErrNotFound
	}
	return hash, err
}

func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}
