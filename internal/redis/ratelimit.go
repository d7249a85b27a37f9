package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting keys:
// - ratelimit:{phone|ip}:otp - OTP requests per window
// - ratelimit:{user_id}:messages - messages sent per window

type RateLimitConfig struct {
	OTPLimit      int
	OTPWindow     time.Duration
	MessageLimit  int
	MessageWindow time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		OTPLimit:      5,
		OTPWindow:     time.Minute,
		MessageLimit:  60,
		MessageWindow: time.Minute,
	}
}

type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// NewRateLimiter fills zero fields of config from DefaultRateLimitConfig.
func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.OTPLimit <= 0 {
		config.OTPLimit = defaults.OTPLimit
	}
	if config.OTPWindow <= 0 {
		config.OTPWindow = defaults.OTPWindow
	}
	if config.MessageLimit <= 0 {
		config.MessageLimit = defaults.MessageLimit
	}
	if config.MessageWindow <= 0 {
		config.MessageWindow = defaults.MessageWindow
	}
	return &RateLimiter{client: client, config: config}
}

func (r *RateLimiter) AllowOTP(ctx context.Context, key string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, fmt.Sprintf("ratelimit:%s:otp", key), r.config.OTPLimit, r.config.OTPWindow)
}

func (r *RateLimiter) AllowMessage(ctx context.Context, userID string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, fmt.Sprintf("ratelimit:%s:messages", userID), r.config.MessageLimit, r.config.MessageWindow)
}

// fixedWindowScript increments the counter unless the limit is reached and
// returns {allowed, remaining, ttl}.
var fixedWindowScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current >= limit then
		return {0, 0, ttl}
	end

	redis.call('INCR', key)
	if current == 0 then
		redis.call('EXPIRE', key, window)
	end
	return {1, limit - current - 1, ttl}
`)

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	ttl, _ := values[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit,
	}, nil
}
