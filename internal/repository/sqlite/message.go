package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db.SQL}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO chat_messages (id, session_id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID.String(),
		message.SessionID.String(),
		message.UserID.String(),
		string(message.Role),
		message.Content,
		toUnix(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBySession retrieves the latest messages for a session in chronological order
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, session_id, user_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			m                        domain.Message
			id, sessID, userID, role string
			createdAt                int64
		)
		if err := rows.Scan(&id, &sessID, &userID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		if m.SessionID, err = uuid.Parse(sessID); err != nil {
			return nil, fmt.Errorf("invalid session id %q: %w", sessID, err)
		}
		if m.UserID, err = uuid.Parse(userID); err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
		}
		m.Role = domain.MessageRole(role)
		m.CreatedAt = fromUnix(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
