package middleware

import (
	"github.com/gin-gonic/gin"

	"triage.app/assistant/common/id"
	"triage.app/assistant/common/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID stamps every request with a Snowflake ID, carried in the
// response header and in all log lines via context enrichment. An inbound
// X-Request-ID is honored so callers can correlate across services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = id.NewString()
		}

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: logger.Ptr(requestID),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}
