package entities

import (
	"strings"
	"time"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// Message is a note posted on a project thread
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(projectID, senderID, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("message content cannot be empty")
	}
	if projectID == "" || senderID == "" {
		return nil, pkgerrors.NewValidationError("message requires a project and a sender")
	}
	return &Message{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}
