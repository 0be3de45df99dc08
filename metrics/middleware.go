package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Middleware records count and latency per route template so path
// parameters do not explode label cardinality.
func (c *Collectors) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path := ctx.Route().Path
		if path == "" {
			path = "unmatched"
		}

		labels := []string{ctx.Method(), path, strconv.Itoa(status)}
		c.RequestCount.WithLabelValues(labels...).Inc()
		c.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}
