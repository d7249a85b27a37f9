package middleware

import (
	"context"
	"strconv"

	"hangoutz/internal/redis"
	"hangoutz/internal/services"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gin-gonic/gin"
)

type RateLimiter interface {
	AllowOTP(ctx context.Context, key string) (*redis.RateLimitResult, error)
	AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error)
}

// OTPRateLimitMiddleware limits code requests per client address.
func OTPRateLimitMiddleware(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowOTP(c.Request.Context(), c.ClientIP())
		if !checkLimit(c, result, err, "Too many OTP requests, please try again later") {
			return
		}
		c.Next()
	}
}

// MessageRateLimitMiddleware limits messages per user. It must run after
// AuthMiddleware.
func MessageRateLimitMiddleware(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		result, err := limiter.AllowMessage(c.Request.Context(), userID.String())
		if !checkLimit(c, result, err, "Message rate limit exceeded") {
			return
		}
		c.Next()
	}
}

func checkLimit(c *gin.Context, result *redis.RateLimitResult, err error, message string) bool {
	if err != nil {
		abortWithError(c, err)
		return false
	}
	setRateLimitHeaders(c, result)
	if !result.Allowed {
		abortWithError(c, hangoutz_errors.New(hangoutz_errors.ErrRateLimited, message))
		return false
	}
	return true
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
