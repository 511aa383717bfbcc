package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/pkg/errors"
)

// ErrorHandler translates errors attached via c.Error into a uniform
// JSON body. Handlers may also respond directly; this is the fallback.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := errors.AsApp(err); ok {
			c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
			return
		}

		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
	}
}
