package handler

import (
	"net/http"

	"hangoutz/internal/domain/user"
	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes the error envelope. The error is also attached to the
// gin context so the error middleware can log internal failures.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(hangoutz_errors.HTTPStatus(err),
		httpdto.NewErrorResponse(hangoutz_errors.Message(err), hangoutz_errors.Code(err)))
}

func badRequest(c *gin.Context, message string) {
	respondError(c, hangoutz_errors.Validation(message))
}

func currentUser(c *gin.Context) (user.User, bool) {
	u, ok := services.UserFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("Not authorized, no token", "UNAUTHORIZED"))
		return user.User{}, false
	}
	return u, true
}

func pathUUID(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}
