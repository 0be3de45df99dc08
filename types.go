package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Deliverer hands one-off tokens to an out of band channel (email).
// Calls must not block on delivery; failures are not reported back
// into the request.
type Deliverer interface {
	DeliverPasswordReset(ctx context.Context, userID uuid.UUID, token string) error
	DeliverRegistration(ctx context.Context, userID uuid.UUID, token string) error
}

// Clock returns the current time
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

type noopDeliverer struct{}

func (noopDeliverer) DeliverPasswordReset(context.Context, uuid.UUID, string) error { return nil }
func (noopDeliverer) DeliverRegistration(context.Context, uuid.UUID, string) error  { return nil }

func normalizeDeliverer(d Deliverer) Deliverer {
	if d == nil {
		return noopDeliverer{}
	}
	return d
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
