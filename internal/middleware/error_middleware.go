package middleware

import (
	"net/http"

	"hangoutz/internal/transport/httpdto"
	hangoutz_errors "hangoutz/pkg/errors"
	"hangoutz/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler turns errors attached with c.Error into the response
// envelope. Internal errors are logged and answered with a generic message.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := hangoutz_errors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log := l
			if log == nil {
				log = logger.GetGlobalLogger()
			}
			log.ErrorCtx(c.Request.Context(), "request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(status, httpdto.NewErrorResponse(hangoutz_errors.Message(err), hangoutz_errors.Code(err)))
	}
}

// abortWithError records err for ErrorHandler and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
