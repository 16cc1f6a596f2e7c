package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/Rrens/shaman-chat/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionListLimit    = 50
	sessionHistoryLimit = 200
	titleTimeout        = 10 * time.Second
)

// ErrEmptyPrompt is returned when neither text nor a file was sent
var ErrEmptyPrompt = errors.New("prompt is required")

// SessionCache stores rendered session lists per user
type SessionCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]domain.SessionSummary, error)
	Set(ctx context.Context, userID uuid.UUID, sessions []domain.SessionSummary) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Prompts holds the system prompts used for replies
type Prompts struct {
	System  string
	Persona string
}

// ChatOptions tunes a ChatService
type ChatOptions struct {
	Provider     string
	Model        string
	HistoryLimit int
	Prompts      Prompts
}

// ExchangeResult is the reply to a session-bound message
type ExchangeResult struct {
	Response      string
	AttachmentURL string
}

// ChatService handles chat sessions and message exchanges
type ChatService struct {
	sessionRepo domain.SessionRepository
	messageRepo domain.MessageRepository
	llmRouter   *llm.Router
	uploads     *UploadStore
	cache       SessionCache
	opts        ChatOptions
	now         func() time.Time
}

// NewChatService creates a new chat service. cache may be nil.
func NewChatService(
	sessionRepo domain.SessionRepository,
	messageRepo domain.MessageRepository,
	llmRouter *llm.Router,
	uploads *UploadStore,
	cache SessionCache,
	opts ChatOptions,
) *ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.Prompts.System == "" {
		opts.Prompts.System = llm.DefaultSystemPrompt
	}
	if opts.Prompts.Persona == "" {
		opts.Prompts.Persona = llm.DefaultPersonaPrompt
	}
	return &ChatService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		llmRouter:   llmRouter,
		uploads:     uploads,
		cache:       cache,
		opts:        opts,
		now:         time.Now,
	}
}

// CreateSession creates a new chat session
func (s *ChatService) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*domain.ChatSession, error) {
	now := s.now()
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitlePrefix + " " + now.Format("02.01.06 15:04")
	}

	session := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.invalidate(ctx, userID)
	return session, nil
}

// ListSessions returns the user's sessions, most recently updated first
func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.SessionSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("session list cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	sessions, err := s.sessionRepo.ListByUser(ctx, userID, sessionListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]domain.SessionSummary, len(sessions))
	for i, sess := range sessions {
		title := sess.Title
		if strings.TrimSpace(title) == "" {
			title = "Dialogue from " + sess.UpdatedAt.Format("02.01.2006")
		}
		summaries[i] = domain.SessionSummary{ID: sess.ID, Title: title, UpdatedAt: sess.UpdatedAt}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, summaries); err != nil {
			log.Warn().Err(err).Msg("session list cache write failed")
		}
	}
	return summaries, nil
}

// History returns the session transcript, oldest first
func (s *ChatService) History(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.HistoryEntry, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionID, sessionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	entries := make([]domain.HistoryEntry, len(messages))
	for i, m := range messages {
		entries[i] = domain.HistoryEntry{Role: m.Role, Content: m.Content}
	}
	return entries, nil
}

// Exchange answers a message inside a session and persists both sides of it
func (s *ChatService) Exchange(ctx context.Context, userID, sessionID uuid.UUID, prompt string, upload *Upload) (*ExchangeResult, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" && upload == nil {
		return nil, ErrEmptyPrompt
	}

	llmPrompt := prompt
	savedPrompt := prompt
	result := &ExchangeResult{}

	// an upload is only kept once the exchange that carried it is stored
	var stored *StoredUpload
	committed := false
	defer func() {
		if stored != nil && !committed {
			s.uploads.Remove(stored)
		}
	}()

	if upload != nil {
		stored, err = s.uploads.Save(userID, *upload)
		if err != nil {
			return nil, err
		}
		llmPrompt, err = s.withAttachment(llmPrompt, stored)
		if err != nil {
			return nil, err
		}
		savedPrompt = strings.TrimSpace(fmt.Sprintf("%s (attached file: %s)", prompt, stored.OriginalName))
		result.AttachmentURL = s.uploads.URL(stored)

		log.Info().
			Str("session_id", sessionID.String()).
			Str("file", stored.StoredName).
			Str("mime", stored.MIMEType).
			Msg("attachment saved")
	}

	history, err := s.messageRepo.ListBySession(ctx, sessionID, s.opts.HistoryLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch chat history")
		history = nil
	}

	provider, err := s.llmRouter.GetProvider(s.opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM provider: %w", err)
	}

	req := llm.Request{
		System:  s.systemPrompt(prompt),
		History: toLLMHistory(history),
		Prompt:  llmPrompt,
	}
	resp, err := provider.Generate(ctx, req, s.opts.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	log.Debug().
		Str("provider", provider.Name()).
		Str("model", resp.Model).
		Int("tokens_used", resp.TokensUsed).
		Int64("latency_ms", resp.LatencyMs).
		Msg("LLM response received")

	now := s.now()
	for _, m := range []*domain.Message{
		{ID: uuid.New(), SessionID: sessionID, UserID: userID, Role: domain.RoleUser, Content: savedPrompt, CreatedAt: now},
		{ID: uuid.New(), SessionID: sessionID, UserID: userID, Role: domain.RoleAssistant, Content: resp.Text, CreatedAt: now},
	} {
		if err := s.messageRepo.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to save message: %w", err)
		}
	}
	committed = true

	if session.HasDefaultTitle() {
		titleSource := prompt
		if titleSource == "" && upload != nil {
			titleSource = upload.Filename
		}
		session.Title = s.titleFor(ctx, provider, titleSource)
	}
	session.UpdatedAt = now
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to update session")
	}
	s.invalidate(ctx, userID)

	result.Response = resp.Text
	return result, nil
}

// Ask answers a single prompt outside of any session
func (s *ChatService) Ask(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	provider, err := s.llmRouter.GetProvider(s.opts.Provider)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM provider: %w", err)
	}

	resp, err := provider.Generate(ctx, llm.Request{System: s.systemPrompt(prompt), Prompt: prompt}, s.opts.Model)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return resp.Text, nil
}

// Providers lists the registered LLM providers
func (s *ChatService) Providers() []llm.ProviderInfo {
	return s.llmRouter.GetProvidersInfo()
}

func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ChatSession, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

func (s *ChatService) withAttachment(prompt string, stored *StoredUpload) (string, error) {
	if stored.Category == attachment.CategoryImage {
		return llm.WithImageNote(prompt, stored.OriginalName), nil
	}

	text, ok, err := s.uploads.ReadText(stored)
	if err != nil {
		return "", err
	}
	if !ok {
		return llm.WithDocumentNote(prompt, stored.OriginalName), nil
	}
	return llm.WithDocumentText(prompt, stored.OriginalName, text), nil
}

func (s *ChatService) systemPrompt(prompt string) string {
	if llm.IsPersonaRequest(prompt) {
		return s.opts.Prompts.Persona
	}
	return s.opts.Prompts.System
}

func (s *ChatService) titleFor(ctx context.Context, provider llm.Provider, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	title, err := provider.GenerateTitle(ctx, prompt, s.opts.Model)
	if err != nil {
		log.Warn().Err(err).Msg("failed to generate session title")
	}
	if title == "" {
		title = llm.FallbackTitle(prompt)
	}
	return title
}

func (s *ChatService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("session list cache invalidation failed")
	}
}

func toLLMHistory(messages []domain.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
