// Package chat holds the client-side state of a conversation with the backend.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Rrens/shaman-chat/internal/apiclient"
	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/rs/zerolog/log"
)

// Controller owns the active session, the cached session list, the
// transcript and the staged attachment. It is safe for concurrent use; one
// round trip runs at a time.
type Controller struct {
	api     API
	view    View
	stager  *attachment.Stager
	speaker Speaker

	mu          sync.Mutex
	state       State
	active      string
	transcript  []Entry
	loaded      bool
	sessions    []apiclient.Session
	listGen     uint64
	listApplied uint64
}

// NewController wires a controller. speaker may be nil.
func NewController(api API, view View, stager *attachment.Stager, speaker Speaker) *Controller {
	if stager == nil {
		stager = attachment.NewStager()
	}
	return &Controller{api: api, view: view, stager: stager, speaker: speaker}
}

// State returns the exchange state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveSession returns the active session uuid, "" when none
func (c *Controller) ActiveSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Transcript returns a copy of the transcript
func (c *Controller) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.transcript...)
}

// Sessions returns a copy of the cached session list
func (c *Controller) Sessions() []apiclient.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]apiclient.Session(nil), c.sessions...)
}

// Stager exposes the attachment slot
func (c *Controller) Stager() *attachment.Stager {
	return c.stager
}

// Attach stages the file at path for the next message. It returns ErrBusy
// while an exchange is in flight.
func (c *Controller) Attach(path string, category attachment.Category) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	err := c.stager.StagePath(path, category)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.view.ShowAttachment(c.stager.Preview())
	return nil
}

// ClearAttachment discards the staged file. It returns ErrBusy while an
// exchange is in flight.
func (c *Controller) ClearAttachment() error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.stager.Clear()
	c.mu.Unlock()
	c.view.ShowAttachment("")
	return nil
}

// ListSessions refreshes the session cache and returns the most recent
// session, or nil when there is none. Responses that arrive after a newer
// list has been applied are dropped.
func (c *Controller) ListSessions(ctx context.Context) (*apiclient.Session, error) {
	c.mu.Lock()
	c.listGen++
	gen := c.listGen
	c.mu.Unlock()

	sessions, err := c.api.ListSessions(ctx)

	c.mu.Lock()
	if gen <= c.listApplied {
		c.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("dropping stale session list")
		return nil, nil
	}
	if err != nil {
		c.mu.Unlock()
		c.view.ShowSessionError(err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	c.listApplied = gen
	c.sessions = sessions
	active := c.active
	c.mu.Unlock()

	c.view.ShowSessions(sessions, active)
	if len(sessions) == 0 {
		return nil, nil
	}
	freshest := sessions[0]
	return &freshest, nil
}

// CreateSession starts a new session and makes it active
func (c *Controller) CreateSession(ctx context.Context, title string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()
	return c.createSession(ctx, title)
}

// SelectSession makes uuid the active session and loads its transcript. It
// does nothing when uuid is already active and its history was loaded.
func (c *Controller) SelectSession(ctx context.Context, uuid string) error {
	c.mu.Lock()
	loaded := uuid == c.active && c.loaded && len(c.transcript) > 0
	c.mu.Unlock()
	if loaded {
		return nil
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	c.active = uuid
	c.transcript = nil
	c.loaded = false
	sessions := c.sessions
	c.mu.Unlock()

	c.view.SetTranscript(nil)
	c.view.ShowSessions(sessions, uuid)
	c.view.SetTitle(titleOf(sessions, uuid))

	history, err := c.api.History(ctx, uuid)

	c.mu.Lock()
	if err != nil {
		entry := errorEntry(err)
		c.transcript = append(c.transcript, entry)
		c.mu.Unlock()
		c.view.AppendEntry(entry)
		return fmt.Errorf("failed to load history: %w", err)
	}
	entries := make([]Entry, len(history))
	for i, h := range history {
		entries[i] = Entry{Role: h.Role, Content: h.Content}
	}
	c.transcript = entries
	c.loaded = true
	c.mu.Unlock()

	c.view.SetTranscript(entries)
	if len(entries) == 0 {
		c.view.ShowNotice(beginningNotice)
	}
	return nil
}

// StartNewChat creates a session unless the active one is still empty and
// nothing is typed or attached
func (c *Controller) StartNewChat(ctx context.Context, draft string, hasAttachment bool) error {
	c.mu.Lock()
	unused := c.active != "" && len(c.transcript) == 0
	c.mu.Unlock()

	if unused && strings.TrimSpace(draft) == "" && !hasAttachment {
		return nil
	}
	return c.CreateSession(ctx, "")
}

// Bootstrap opens the most recent session, or a new one when there is none
func (c *Controller) Bootstrap(ctx context.Context) error {
	freshest, err := c.ListSessions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not load sessions, starting a new one")
	}
	if freshest != nil {
		return c.SelectSession(ctx, freshest.UUID)
	}
	return c.CreateSession(ctx, "")
}

// Send delivers text and the staged attachment to the active session,
// creating a session first when there is none. The reply is appended to
// the transcript and read aloud.
func (c *Controller) Send(ctx context.Context, text string) (*apiclient.DialogueReply, error) {
	prompt := strings.TrimSpace(text)
	if prompt == "" && c.stager.Current() == nil {
		return nil, ErrEmptySubmission
	}

	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	// the slot is frozen until end
	file := c.stager.Current()
	if prompt == "" && file == nil {
		return nil, ErrEmptySubmission
	}

	if c.ActiveSession() == "" {
		if err := c.createSession(ctx, ""); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	sessionID := c.active
	userEntry := Entry{Role: RoleUser, Content: userContent(prompt, file)}
	c.transcript = append(c.transcript, userEntry)
	c.mu.Unlock()
	c.view.AppendEntry(userEntry)

	req := apiclient.DialogueRequest{Prompt: prompt, SessionUUID: sessionID}
	if file != nil {
		if err := file.Rewind(); err != nil {
			c.fail(err)
			return nil, err
		}
		req.File = &apiclient.FilePart{Name: file.Name, ContentType: file.MIMEType, Content: file.Content}
	}

	reply, err := c.api.DialogueWithFile(ctx, req)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	assistantEntry := Entry{Role: RoleAssistant, Content: reply.Response}
	c.transcript = append(c.transcript, assistantEntry)
	c.mu.Unlock()

	c.view.AppendEntry(assistantEntry)
	if c.stager.ClearIf(file) {
		c.view.ShowAttachment("")
	}
	if reply.AttachmentURL != "" {
		c.view.ShowAttachmentURL(reply.AttachmentURL)
	}

	if _, err := c.ListSessions(ctx); err != nil {
		log.Warn().Err(err).Msg("session list refresh after send failed")
	}
	c.view.SetTitle(titleOf(c.Sessions(), sessionID))

	if c.speaker != nil {
		c.speaker.Speak(reply.Response)
	}
	return reply, nil
}

// Ask sends a one-shot prompt outside of any session. The transcript is not touched.
func (c *Controller) Ask(ctx context.Context, text string) (string, error) {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return "", ErrEmptySubmission
	}
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	reply, err := c.api.Dialogue(ctx, prompt)
	if err != nil {
		c.mu.Lock()
		c.state = Error
		c.mu.Unlock()
		return "", err
	}
	return reply, nil
}

func (c *Controller) createSession(ctx context.Context, title string) error {
	session, err := c.api.CreateSession(ctx, title)
	if err != nil {
		entry := Entry{Role: RoleAssistant, Content: fmt.Sprintf("[Error: could not start a new dialogue: %s]", err)}
		c.mu.Lock()
		c.transcript = append(c.transcript, entry)
		c.mu.Unlock()
		c.view.AppendEntry(entry)
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.mu.Lock()
	c.active = session.UUID
	c.transcript = nil
	c.loaded = true
	c.mu.Unlock()

	c.view.SetTranscript(nil)
	c.view.ShowNotice(session.Title + greetingSuffix)

	if _, err := c.ListSessions(ctx); err != nil {
		log.Warn().Err(err).Msg("session list refresh after create failed")
	}
	c.view.SetTitle(session.Title)
	return nil
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.state = Error
	entry := errorEntry(err)
	c.transcript = append(c.transcript, entry)
	c.mu.Unlock()

	c.view.AppendEntry(entry)
}

func (c *Controller) begin() error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Sending
	c.mu.Unlock()

	c.view.SetBusy(true)
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()

	c.view.SetBusy(false)
}

func errorEntry(err error) Entry {
	return Entry{Role: RoleAssistant, Content: fmt.Sprintf("[Error: %s]", err)}
}

func userContent(prompt string, file *attachment.File) string {
	if file == nil {
		return prompt
	}
	return strings.TrimSpace(fmt.Sprintf("%s (attached file: %s)", prompt, file.Name))
}

func titleOf(sessions []apiclient.Session, uuid string) string {
	for _, s := range sessions {
		if s.UUID == uuid {
			return s.Title
		}
	}
	return ""
}
