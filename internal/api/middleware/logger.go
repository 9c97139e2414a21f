package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/blisspaper/internal/logger"
)

const (
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"
)

// RequestLogger returns a Gin middleware that tags each request with an ID
// and a request-scoped logger, then logs its completion.
// Parameters:
//   - log: base logger to enrich with request fields; nil uses the default.
//
// Returns:
//   - gin.HandlerFunc: middleware handler.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetDefault()
	}
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := log.WithContext(c.Request.Context())
		ctx = logger.SetComponent(ctx, "api")
		ctx = logger.SetRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(loggerKey, logger.FromContext(ctx))
		c.Header(requestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path += "?" + query
		}
		logger.With(logger.Fields{
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			logger.FieldSize:       c.Writer.Size(),
		}).Debug(ctx, "Request completed: method=%s, path=%s, client_ip=%s",
			c.Request.Method, path, c.ClientIP())
	}
}

// GetLogger extracts logger from Gin context or request context.
func GetLogger(c *gin.Context) *logger.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context())
}
