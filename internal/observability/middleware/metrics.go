package middleware

import (
	"strconv"
	"time"

	"tacticsboard-auth/internal/observability/metrics"

	"github.com/gofiber/fiber/v2"
)

// WithMetrics records request counts and latencies for every route except
// the metrics endpoint itself. The path label uses the registered route
// pattern, not the raw URL.
func WithMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
