package services

import (
	"context"

	"hangoutz/internal/domain/user"

	"github.com/google/uuid"
)

type ctxKey string

var userIDKey ctxKey = "user_id"
var userKey ctxKey = "user"

// WithUserContext binds the authenticated user to ctx.
func WithUserContext(ctx context.Context, u user.User) context.Context {
	ctx = context.WithValue(ctx, userIDKey, u.ID)
	return context.WithValue(ctx, userKey, u)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func UserFromContext(ctx context.Context) (user.User, bool) {
	value := ctx.Value(userKey)
	if value == nil {
		return user.User{}, false
	}
	u, ok := value.(user.User)
	return u, ok
}
