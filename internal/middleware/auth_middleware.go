package middleware

import (
	"context"
	"strings"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/services"
	"hangoutz/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (user.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the resolved user on the request context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := verifier.VerifyToken(c.Request.Context(), extractBearer(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		attachUser(c, u)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractBearer(c); token != "" {
			if u, err := verifier.VerifyToken(c.Request.Context(), token); err == nil {
				attachUser(c, u)
			}
		}
		c.Next()
	}
}

func attachUser(c *gin.Context, u user.User) {
	ctx := services.WithUserContext(c.Request.Context(), u)
	ctx = context.WithValue(ctx, logger.UserIdKey, u.ID.String())
	c.Request = c.Request.WithContext(ctx)
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
