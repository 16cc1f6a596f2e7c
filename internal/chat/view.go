package chat

import (
	"context"

	"github.com/Rrens/shaman-chat/internal/apiclient"
)

// API is the part of the backend client the controller uses
type API interface {
	ListSessions(ctx context.Context) ([]apiclient.Session, error)
	CreateSession(ctx context.Context, title string) (*apiclient.Session, error)
	History(ctx context.Context, sessionUUID string) ([]apiclient.HistoryEntry, error)
	Dialogue(ctx context.Context, prompt string) (string, error)
	DialogueWithFile(ctx context.Context, req apiclient.DialogueRequest) (*apiclient.DialogueReply, error)
}

// Speaker reads replies aloud without blocking
type Speaker interface {
	Speak(text string) bool
}

// View renders controller state. Methods are called without the controller lock held.
type View interface {
	SetBusy(busy bool)
	SetTranscript(entries []Entry)
	AppendEntry(entry Entry)
	ShowNotice(text string)
	ShowSessions(sessions []apiclient.Session, active string)
	ShowSessionError(err error)
	SetTitle(title string)
	ShowAttachment(preview string)
	ShowAttachmentURL(url string)
}
