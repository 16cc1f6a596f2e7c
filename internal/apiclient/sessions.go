package apiclient

import (
	"context"
	"net/url"
)

// ListSessions returns the caller's sessions, most recent first
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.getJSON(ctx, "/api/chat_sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session. An empty title lets the backend pick one.
func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	const path = "/api/chat_session_create"

	var session Session
	if err := c.postJSON(ctx, path, map[string]string{"title": title}, &session); err != nil {
		return nil, err
	}
	if session.UUID == "" {
		return nil, &MalformedResponseError{Path: path, Field: "uuid"}
	}
	return &session, nil
}

// History returns the transcript of a session, oldest first
func (c *Client) History(ctx context.Context, sessionUUID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := c.getJSON(ctx, "/api/chat_session_messages?uuid="+url.QueryEscape(sessionUUID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
