package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user touches a session owned by someone else
	ErrForbidden = errors.New("access to this chat session is forbidden")
)

// DefaultSessionTitlePrefix marks sessions whose title has not been derived from a prompt yet
const DefaultSessionTitlePrefix = "New dialogue"

// ChatSession represents a conversation thread owned by a user
type ChatSession struct {
	ID        uuid.UUID `json:"uuid"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasDefaultTitle reports whether the title was generated at creation time
func (s *ChatSession) HasDefaultTitle() bool {
	return strings.HasPrefix(s.Title, DefaultSessionTitlePrefix)
}

// SessionSummary is the list form of a session
type SessionSummary struct {
	ID        uuid.UUID `json:"uuid"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	Get(ctx context.Context, id uuid.UUID) (*ChatSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]ChatSession, error)
	Update(ctx context.Context, session *ChatSession) error
}
