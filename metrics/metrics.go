package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/goliatone/go-auth-starter"
)

// Collectors groups the application metrics so each registry gets its
// own set.
type Collectors struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AccountEvents   *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
}

func NewCollectors() *Collectors {
	return &Collectors{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AccountEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_events_total",
				Help: "Account activity events by type.",
			},
			[]string{"event"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliveries_total",
				Help: "Processed delivery tasks by task name and outcome.",
			},
			[]string{"task", "outcome"},
		),
	}
}

// Register adds every collector to registry
func (c *Collectors) Register(registry prometheus.Registerer) {
	registry.MustRegister(c.RequestCount, c.RequestDuration, c.AccountEvents, c.Deliveries)
}

// ActivitySink counts account events by type
func (c *Collectors) ActivitySink() auth.ActivitySink {
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		c.AccountEvents.WithLabelValues(string(event.EventType)).Inc()
		return nil
	})
}

// ObserveDelivery counts a processed task
func (c *Collectors) ObserveDelivery(task, outcome string) {
	c.Deliveries.WithLabelValues(task, outcome).Inc()
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
