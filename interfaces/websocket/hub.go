package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/particles"

	"go.uber.org/zap"
)

var (
	ErrHubFull   = errors.New("field connection limit reached")
	ErrHubClosed = errors.New("field hub is shut down")
)

// FieldSettings configures the runner behind each new connection
type FieldSettings struct {
	Params   particles.Params
	Viewport particles.Viewport
	Interval time.Duration
}

// Hub tracks live field connections. It enforces the connection cap, hands
// the current field settings to new connections and closes every
// connection on shutdown.
type Hub struct {
	mu             sync.RWMutex
	clients        map[*Client]struct{}
	settings       FieldSettings
	maxConnections int
	closed         bool

	metrics ports.Metrics
	logger  *zap.Logger
}

// NewHub creates a new field hub
func NewHub(maxConnections int, settings FieldSettings, metrics ports.Metrics, logger *zap.Logger) *Hub {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Hub{
		clients:        make(map[*Client]struct{}),
		settings:       settings,
		maxConnections: maxConnections,
		metrics:        metrics,
		logger:         logger,
	}
}

// Run waits for ctx and then closes all connections. While running it logs
// the connection count periodically.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Field hub shutting down")
			h.CloseAll()
			return nil
		case <-ticker.C:
			h.logger.Debug("Field hub health check", zap.Int("connections", h.Count()))
		}
	}
}

// Settings returns the settings new connections start with
func (h *Hub) Settings() FieldSettings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// UpdateSettings replaces the settings for connections opened from now on.
// Live fields keep the parameters they started with.
func (h *Hub) UpdateSettings(settings FieldSettings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = settings
	h.logger.Info("Field settings updated", zap.Int("node_count", settings.Params.NodeCount))
}

// Full reports whether the connection cap has been reached
func (h *Hub) Full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed || len(h.clients) >= h.maxConnections
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection and refuses new ones
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.logger.Info("All field connections closed", zap.Int("closed", len(clients)))
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if len(h.clients) >= h.maxConnections {
		return ErrHubFull
	}
	h.clients[c] = struct{}{}
	h.metrics.FieldConnectionOpened()

	h.logger.Info("Field client registered",
		zap.String("connectionID", c.id),
		zap.Int("connections", len(h.clients)),
	)
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.metrics.FieldConnectionClosed()

	h.logger.Info("Field client unregistered",
		zap.String("connectionID", c.id),
		zap.Int("remainingConnections", len(h.clients)),
	)
}
