// Package httpmw holds the gin middleware shared by all four ragomesh
// servers: request correlation, structured logging, panic recovery, and
// the uniform error-body renderer.
package httpmw

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/liliang-cn/ragomesh/internal/domain"
)

// RequestID stamps every request with an X-Request-ID, reusing an
// inbound header if the caller already set one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs each request once it completes, at a level derived from
// the response status, with the request ID and latency attached.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		requestID, _ := c.Get("request_id")

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		event.
			Str("request_id", requestID.(string)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Msg("request completed")
	}
}

// Recovery converts a panic into a 500 internal-error response instead
// of crashing the process.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get("request_id")
				logger.Error().
					Interface("panic", r).
					Str("request_id", fmtRequestID(requestID)).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				c.AbortWithStatusJSON(500, gin.H{"detail": "internal server error"})
			}
		}()
		c.Next()
	}
}

func fmtRequestID(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// CORS builds the permissive CORS middleware every service carries as
// ambient plumbing.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	return cors.New(cfg)
}

// AbortWithError renders the uniform {"detail": ...} body used for
// every non-2xx response, at the status the tagged error variant maps
// to.
func AbortWithError(c *gin.Context, err error) {
	status := domain.HTTPStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}
