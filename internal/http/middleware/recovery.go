package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"triage.app/assistant/internal/http/dto"
)

// Recovery converts panics into a well-formed 500 envelope. Clients never
// see a stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Detail:    "An unexpected error occurred",
					ErrorType: "internal_server_error",
				})
			}
		}()
		c.Next()
	}
}
