package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/application/services"
	"eternals-backend/domain/particles"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Input events are tiny
	maxMessageSize = 4 * 1024

	// Frames waiting to be written; newer frames are dropped past this
	sendBufferSize = 8
)

// Client is one field connection. It owns a FieldRunner for the lifetime of
// the socket: input messages drive the runner and every committed frame is
// queued for the write pump.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	runner *services.FieldRunner
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once

	metrics ports.Metrics
	logger  *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, metrics ports.Metrics, logger *zap.Logger) *Client {
	settings := hub.Settings()
	id := uuid.New().String()
	logger = logger.With(zap.String("connectionID", id))

	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		runner: services.NewFieldRunner(services.FieldRunnerConfig{
			Params:   settings.Params,
			Viewport: settings.Viewport,
			Interval: settings.Interval,
		}, metrics, logger),
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Close tears the connection down; the serving goroutine then cleans up
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// serve runs the connection until the peer goes away or the hub closes it.
// It blocks; the runner and write pump are stopped before it returns.
func (c *Client) serve() {
	defer c.hub.unregister(c)
	defer c.Close()

	hello, err := encode(MessageConnectionEstablished, ConnectionEstablished{
		ConnectionID: c.id,
		TickMillis:   c.hub.Settings().Interval.Milliseconds(),
	})
	if err == nil {
		c.send <- hello
	}

	dispose := c.runner.Subscribe(c.queueFrame)
	defer dispose()

	if err := c.runner.Start(context.Background()); err != nil {
		c.logger.Error("Failed to start field runner", zap.Error(err))
		return
	}
	defer c.runner.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.readPump()
	c.Close()
	wg.Wait()
}

// queueFrame runs on the tick goroutine and must not block
func (c *Client) queueFrame(frame particles.Frame) {
	data, err := encode(MessageFrame, frame)
	if err != nil {
		c.logger.Error("Failed to encode frame", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.metrics.FrameDropped()
	}
}

// readPump applies input events until the connection fails
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Field connection closed unexpectedly", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reportError("malformed message")
			continue
		}
		if err := apply(c.runner, msg); err != nil {
			c.reportError(err.Error())
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Failed to write message", zap.Error(err))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Failed to send ping", zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

func (c *Client) reportError(message string) {
	data, err := encode(MessageError, map[string]string{"message": message})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
