// Package websocket streams the particle field to browsers. Every connection
// gets its own field; pointer input flows in and frames flow out.
package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"eternals-backend/application/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests to field connections
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	metrics  ports.Metrics
	logger   *zap.Logger
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int

	// AllowedOrigins lists browser origins that may connect; "*" allows any.
	// Requests without an Origin header and same-host requests always pass.
	AllowedOrigins []string
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, config ServerConfig, metrics ports.Metrics, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(config.AllowedOrigins),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// HandleField handles GET /ws/field. It blocks for the lifetime of the
// connection.
func (s *Server) HandleField(w http.ResponseWriter, r *http.Request) {
	if s.hub.Full() {
		s.logger.Warn("Field connection refused", zap.Int("connections", s.hub.Count()))
		http.Error(w, "too many field connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := newClient(s.hub, conn, s.metrics, s.logger)
	if err := s.hub.register(client); err != nil {
		// Lost the race for the last slot
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	s.logger.Info("New field connection established",
		zap.String("connectionID", client.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
	client.serve()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	anyOrigin := false
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || anyOrigin {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
