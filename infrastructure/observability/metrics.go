package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Every method
// is a no-op on a nil *Collector so components can run with metrics off.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cart metrics
	CartOperations *prometheus.CounterVec
	ActiveCarts    prometheus.Gauge
	CartsExpired   prometheus.Counter

	// Particle field metrics
	FieldTicks        prometheus.Counter
	FieldTickDuration prometheus.Histogram
	FieldConnections  prometheus.Gauge
	FieldFramesDrops  prometheus.Counter

	// Auth metrics
	AuthAttempts *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry, so tests can build
// as many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CartOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_operations_total",
				Help:      "Total number of cart mutations by operation",
			},
			[]string{"operation"},
		),
		ActiveCarts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "carts_active",
				Help:      "Number of live shopping carts",
			},
		),
		CartsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "carts_expired_total",
				Help:      "Total number of carts evicted after idling",
			},
		),
		FieldTicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_ticks_total",
				Help:      "Total number of particle field ticks",
			},
		),
		FieldTickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "field_tick_duration_seconds",
				Help:      "Time spent computing one particle field tick",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
		FieldConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "field_connections",
				Help:      "Number of open particle field websocket connections",
			},
		),
		FieldFramesDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_frames_dropped_total",
				Help:      "Frames skipped because a client could not keep up",
			},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Authentication attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	// Register all metrics with the registry
	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CartOperations,
		c.ActiveCarts,
		c.CartsExpired,
		c.FieldTicks,
		c.FieldTickDuration,
		c.FieldConnections,
		c.FieldFramesDrops,
		c.AuthAttempts,
		c.BreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// CartOperation counts a cart mutation
func (c *Collector) CartOperation(operation string) {
	if c == nil {
		return
	}
	c.CartOperations.WithLabelValues(operation).Inc()
}

// SetActiveCarts reports the number of live carts
func (c *Collector) SetActiveCarts(n int) {
	if c == nil {
		return
	}
	c.ActiveCarts.Set(float64(n))
}

// CartExpired counts an evicted cart
func (c *Collector) CartExpired() {
	if c == nil {
		return
	}
	c.CartsExpired.Inc()
}

// FieldTick records one simulation step
func (c *Collector) FieldTick(duration time.Duration) {
	if c == nil {
		return
	}
	c.FieldTicks.Inc()
	c.FieldTickDuration.Observe(duration.Seconds())
}

// FieldConnectionOpened tracks a new websocket client
func (c *Collector) FieldConnectionOpened() {
	if c == nil {
		return
	}
	c.FieldConnections.Inc()
}

// FieldConnectionClosed tracks a departed websocket client
func (c *Collector) FieldConnectionClosed() {
	if c == nil {
		return
	}
	c.FieldConnections.Dec()
}

// FrameDropped counts a frame a slow client never received
func (c *Collector) FrameDropped() {
	if c == nil {
		return
	}
	c.FieldFramesDrops.Inc()
}

// AuthAttempt counts a login or registration by outcome
func (c *Collector) AuthAttempt(method, outcome string) {
	if c == nil {
		return
	}
	c.AuthAttempts.WithLabelValues(method, outcome).Inc()
}

// SetBreakerState reports a circuit breaker transition
func (c *Collector) SetBreakerState(name string, state float64) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(name).Set(state)
}
