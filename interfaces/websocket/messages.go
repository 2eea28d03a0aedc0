package websocket

import (
	"encoding/json"
	"fmt"

	"eternals-backend/application/services"
)

// MessageType names a message on the field socket
type MessageType string

const (
	// Client to server
	MessagePointerMove  MessageType = "pointer_move"
	MessagePointerDown  MessageType = "pointer_down"
	MessagePointerUp    MessageType = "pointer_up"
	MessagePointerLeave MessageType = "pointer_leave"
	MessageResize       MessageType = "resize"

	// Server to client
	MessageConnectionEstablished MessageType = "connection_established"
	MessageFrame                 MessageType = "frame"
	MessageError                 MessageType = "error"
)

// ClientMessage is an input event sent by the browser
type ClientMessage struct {
	Type   MessageType `json:"type"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// ServerMessage wraps everything the server pushes
type ServerMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ConnectionEstablished is the payload of the first message on a socket
type ConnectionEstablished struct {
	ConnectionID string `json:"connection_id"`
	TickMillis   int64  `json:"tick_ms"`
}

func encode(msgType MessageType, data interface{}) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: msgType, Data: data})
}

// apply forwards one input event to the runner
func apply(runner *services.FieldRunner, msg ClientMessage) error {
	switch msg.Type {
	case MessagePointerMove:
		runner.MovePointer(msg.X, msg.Y)
	case MessagePointerDown:
		runner.PressPointer(msg.X, msg.Y)
	case MessagePointerUp:
		runner.ReleasePointer()
	case MessagePointerLeave:
		runner.LeavePointer()
	case MessageResize:
		runner.Resize(msg.Width, msg.Height)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
