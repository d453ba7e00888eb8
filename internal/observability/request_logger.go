package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// UserIDLocal is the c.Locals key the auth layer fills with the caller id.
const UserIDLocal = "user_id"

// RequestID returns the id assigned by RequestLogger.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// RequestLogger assigns a request id, measures the request and logs it once
// it completes. Errors returned by later handlers pass through unchanged.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(requestIDKey, requestID)
		c.Set(HeaderRequestID, requestID)

		metrics.trackInflight(1)
		defer metrics.trackInflight(-1)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		latency := time.Since(start)
		metrics.RecordRequest(path, c.Method(), status, latency)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		if userID, ok := c.Locals(UserIDLocal).(string); ok && userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		logger.Info("http request", fields...)
		return err
	}
}
