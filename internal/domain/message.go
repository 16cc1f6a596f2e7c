package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a stored chat message
type Message struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	UserID    uuid.UUID   `json:"-"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// HistoryEntry is the wire form of a transcript entry
type HistoryEntry struct {
	Role    MessageRole `json:"Role"`
	Content string      `json:"Content"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListBySession returns the latest limit messages of a session, oldest first
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error)
}
