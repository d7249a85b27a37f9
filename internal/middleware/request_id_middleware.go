package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"hangoutz/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxRequestIDLength = 64

// RequestIDMiddleware reuses a caller supplied X-Request-Id when it is short
// enough and otherwise generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = newRequestID()
		}
		c.Writer.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// newRequestID returns 16 random bytes in hex, a compact id without the
// dashes of a uuid.
func newRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
