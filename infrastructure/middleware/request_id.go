package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header that carries the request ID in both
// directions.
const RequestIDHeader = "X-Request-Id"

// requestIDKey keys the request ID in a standard context.
type requestIDKey struct{}

// RequestID ensures every request has a stable request ID. It reads the
// X-Request-Id header when the client supplies one, generates a UUID
// otherwise, stores the ID in both the Gin context and the request's
// standard context, and echoes it back in the response header so clients
// can correlate logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set("request_id", rid)

		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, rid)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(RequestIDHeader, rid)

		c.Next()
	}
}

// GetRequestID extracts the request ID from a standard context. It
// returns an empty string when the context carries none.
func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// RequestLogger logs one line per request with the request ID, method,
// path, status, and latency. It should run after RequestID so the logged
// ID matches the one echoed to the client.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Printf(
			"[req] id=%s method=%s path=%s status=%d latency=%s",
			c.GetString("request_id"),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
