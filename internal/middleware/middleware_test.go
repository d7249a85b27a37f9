package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/redis"
	"hangoutz/internal/services"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeVerifier map[string]user.User

func (f fakeVerifier) VerifyToken(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, hangoutz_errors.Unauthorized("Not authorized, no token")
	}
	u, ok := f[token]
	if !ok {
		return user.User{}, hangoutz_errors.Unauthorized("Invalid token")
	}
	return u, nil
}

type fakeLimiter struct {
	allowed bool
	keys    []string
}

func (l *fakeLimiter) result() *redis.RateLimitResult {
	remaining := 0
	if l.allowed {
		remaining = 4
	}
	return &redis.RateLimitResult{Allowed: l.allowed, Remaining: remaining, ResetIn: 30 * time.Second, Limit: 5}
}

func (l *fakeLimiter) AllowOTP(ctx context.Context, key string) (*redis.RateLimitResult, error) {
	l.keys = append(l.keys, key)
	return l.result(), nil
}

func (l *fakeLimiter) AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error) {
	l.keys = append(l.keys, userID)
	return l.result(), nil
}

type body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(nil))
	r.GET("/t", handlers...)
	return r
}

func call(t *testing.T, r *gin.Engine, header http.Header) (*httptest.ResponseRecorder, body) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var b body
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, b
}

func whoami(c *gin.Context) {
	id, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "anonymous"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": id.String()})
}

func TestAuthMiddleware(t *testing.T) {
	ana := user.User{ID: uuid.New(), Name: "ana"}
	r := newRouter(AuthMiddleware(fakeVerifier{"good": ana}), whoami)

	rec, b := call(t, r, nil)
	if rec.Code != http.StatusUnauthorized || b.Success || b.Code != "UNAUTHORIZED" || b.Message != "Not authorized, no token" {
		t.Fatalf("missing token: %d %+v", rec.Code, b)
	}

	rec, b = call(t, r, http.Header{"Authorization": {"Bearer bad"}})
	if rec.Code != http.StatusUnauthorized || b.Message != "Invalid token" {
		t.Fatalf("bad token: %d %+v", rec.Code, b)
	}

	rec, b = call(t, r, http.Header{"Authorization": {"Bearer good"}})
	if rec.Code != http.StatusOK || b.Message != ana.ID.String() {
		t.Fatalf("good token: %d %+v", rec.Code, b)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	ana := user.User{ID: uuid.New()}
	r := newRouter(OptionalAuthMiddleware(fakeVerifier{"good": ana}), whoami)

	for _, header := range []http.Header{nil, {"Authorization": {"Bearer bad"}}} {
		rec, b := call(t, r, header)
		if rec.Code != http.StatusOK || b.Message != "anonymous" {
			t.Fatalf("expected anonymous pass-through, got %d %+v", rec.Code, b)
		}
	}

	_, b := call(t, r, http.Header{"Authorization": {"bearer good"}})
	if b.Message != ana.ID.String() {
		t.Fatalf("expected user to be attached, got %+v", b)
	}
}

func TestMessageRateLimit(t *testing.T) {
	ana := user.User{ID: uuid.New()}
	limiter := &fakeLimiter{allowed: true}
	r := newRouter(AuthMiddleware(fakeVerifier{"good": ana}), MessageRateLimitMiddleware(limiter), whoami)
	header := http.Header{"Authorization": {"Bearer good"}}

	rec, _ := call(t, r, header)
	if rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("expected allowed request with headers, got %d %v", rec.Code, rec.Header())
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != ana.ID.String() {
		t.Fatalf("expected limit keyed by user, got %v", limiter.keys)
	}

	limiter.allowed = false
	rec, b := call(t, r, header)
	if rec.Code != http.StatusTooManyRequests || b.Code != "RATE_LIMITED" {
		t.Fatalf("expected 429, got %d %+v", rec.Code, b)
	}
	if rec.Header().Get("X-RateLimit-Reset") != "30" {
		t.Fatalf("unexpected reset header %q", rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused on 10.0.0.3"))
	})

	rec, b := call(t, r, nil)
	if rec.Code != http.StatusInternalServerError || b.Message != "internal server error" || b.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected generic 500, got %d %+v", rec.Code, b)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newRouter(RequestIDMiddleware(), whoami)

	rec, _ := call(t, r, nil)
	if len(rec.Header().Get("X-Request-Id")) != 32 {
		t.Fatalf("expected generated id, got %q", rec.Header().Get("X-Request-Id"))
	}

	rec, _ = call(t, r, http.Header{"X-Request-Id": {"abc"}})
	if rec.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("expected incoming id to be kept, got %q", rec.Header().Get("X-Request-Id"))
	}
}
