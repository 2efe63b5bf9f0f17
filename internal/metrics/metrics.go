// Package metrics exposes giftsplit's Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/giftsplit/internal/models"
)

const namespace = "giftsplit"

// Collector holds every metric and implements session.Observer.
type Collector struct {
	registry *prometheus.Registry

	sessionsOpen     prometheus.Gauge
	sessionsOpened   prometheus.Counter
	recoveredInputs  *prometheus.CounterVec
	addressesSaved   prometheus.Counter
	handoffsSaved    prometheus.Counter
	handoffRecipient prometheus.Histogram
	rpcDuration      *prometheus.HistogramVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Recipient sessions currently held in memory.",
		}),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Recipient sessions opened.",
		}),
		recoveredInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_inputs_total",
			Help:      "Inputs clamped or ignored instead of applied, by kind.",
		}, []string{"kind"}),
		addressesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "addresses_saved_total",
			Help:      "Addresses added to a session's saved list.",
		}),
		handoffsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_submitted_total",
			Help:      "Handoffs written to the outbox.",
		}),
		handoffRecipient: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handoff_recipients",
			Help:      "Recipient rows per submitted handoff.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	c.registry.MustRegister(
		c.sessionsOpen,
		c.sessionsOpened,
		c.recoveredInputs,
		c.addressesSaved,
		c.handoffsSaved,
		c.handoffRecipient,
		c.rpcDuration,
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) SessionOpened() {
	c.sessionsOpen.Inc()
	c.sessionsOpened.Inc()
}

func (c *Collector) SessionClosed() {
	c.sessionsOpen.Dec()
}

func (c *Collector) Recovered(kind models.Kind) {
	c.recoveredInputs.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) AddressSaved() {
	c.addressesSaved.Inc()
}

// HandoffSubmitted records a handoff written to the outbox.
func (c *Collector) HandoffSubmitted(h models.Handoff) {
	c.handoffsSaved.Inc()
	c.handoffRecipient.Observe(float64(len(h.Rows)))
}

// Interceptor returns a Connect interceptor recording RPC latency.
func (c *Collector) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				code = connectErr.Code().String()
			} else if err != nil {
				code = connect.CodeUnknown.String()
			}
			c.rpcDuration.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
