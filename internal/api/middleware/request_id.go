package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the correlation ID in both directions.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the correlation ID.
	RequestIDKey = "request_id"
)

// Schedulers and workflow callers pass their own IDs; anything that would
// garble a structured log line is replaced.
var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID tags every request with a correlation ID, reusing a well-formed
// inbound X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !inboundRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID of c, or "" outside RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
