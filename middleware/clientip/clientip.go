package clientip

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// LocalsKey holds the remote address stored by New
const LocalsKey = "client_ip"

// New records the remote address of the request. It runs on the fiber
// app ahead of the router since router.Context does not expose the
// connection.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalsKey, c.IP())
		return c.Next()
	}
}

// FromContext returns the address stored by New, falling back to the
// first X-Forwarded-For entry
func FromContext(ctx router.Context) string {
	if ip, ok := ctx.Locals(LocalsKey).(string); ok && ip != "" {
		return ip
	}

	forwarded := ctx.Header(fiber.HeaderXForwardedFor)
	if forwarded == "" {
		return ""
	}
	ip, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(ip)
}
