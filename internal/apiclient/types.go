package apiclient

import (
	"io"
	"time"
)

// Session is a chat session as listed or created by the backend
type Session struct {
	UUID      string    `json:"uuid"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is one transcript entry
type HistoryEntry struct {
	Role    string `json:"Role"`
	Content string `json:"Content"`
}

// FilePart is a file sent with a dialogue request
type FilePart struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// DialogueRequest is a message bound to a session
type DialogueRequest struct {
	Prompt      string
	SessionUUID string
	File        *FilePart
}

// DialogueReply is the assistant's answer
type DialogueReply struct {
	Response      string
	AttachmentURL string
}

// LegalDocument is a terms or privacy page
type LegalDocument struct {
	Title      string `json:"title"`
	Content    string `json:"Content"`
	UpdateDate string `json:"UpdateDate"`
}

// Token is a login result
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
