package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/Rrens/shaman-chat/internal/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type chatFixture struct {
	sessions *MockSessionRepository
	messages *MockMessageRepository
	cache    *MockSessionCache
	provider *MockLLMProvider
	svc      *ChatService
}

func newChatFixture(t *testing.T, uploads *UploadStore) *chatFixture {
	t.Helper()
	f := &chatFixture{
		sessions: new(MockSessionRepository),
		messages: new(MockMessageRepository),
		cache:    new(MockSessionCache),
		provider: newMockProvider(),
	}
	f.svc = NewChatService(f.sessions, f.messages, newRouter(f.provider), uploads, f.cache, ChatOptions{})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestChatService_CreateSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("default title", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)
		f.cache.On("Invalidate", ctx, userID).Return(nil)

		session, err := f.svc.CreateSession(ctx, userID, "  ")
		require.NoError(t, err)
		assert.Equal(t, "New dialogue 14.03.26 09:30", session.Title)
		assert.True(t, session.HasDefaultTitle())
		assert.Equal(t, userID, session.UserID)

		f.sessions.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})

	t.Run("explicit title", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*domain.ChatSession")).Return(nil)
		f.cache.On("Invalidate", ctx, userID).Return(nil)

		session, err := f.svc.CreateSession(ctx, userID, "Sleep")
		require.NoError(t, err)
		assert.Equal(t, "Sleep", session.Title)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := f.svc.CreateSession(ctx, userID, "")
		assert.ErrorContains(t, err, "failed to create session")
		f.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestChatService_ListSessions(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("cache miss renders blank titles", func(t *testing.T) {
		f := newChatFixture(t, nil)
		newer := domain.ChatSession{ID: uuid.New(), UserID: userID, Title: "Sleep", UpdatedAt: fixedNow}
		older := domain.ChatSession{ID: uuid.New(), UserID: userID, Title: "", UpdatedAt: fixedNow.AddDate(0, 0, -2)}

		f.cache.On("Get", ctx, userID).Return(nil, nil)
		f.sessions.On("ListByUser", ctx, userID, sessionListLimit).Return([]domain.ChatSession{newer, older}, nil)
		f.cache.On("Set", ctx, userID, mock.Anything).Return(nil)

		list, err := f.svc.ListSessions(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, "Dialogue from 12.03.2026", list[1].Title)

		f.cache.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		f := newChatFixture(t, nil)
		cached := []domain.SessionSummary{{ID: uuid.New(), Title: "cached"}}
		f.cache.On("Get", ctx, userID).Return(cached, nil)

		list, err := f.svc.ListSessions(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, cached, list)
		f.sessions.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChatService_History(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("owned session", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)
		f.messages.On("ListBySession", ctx, sessionID, sessionHistoryLimit).Return([]domain.Message{
			{Role: domain.RoleUser, Content: "hello"},
			{Role: domain.RoleAssistant, Content: "hi there"},
		}, nil)

		history, err := f.svc.History(ctx, userID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []domain.HistoryEntry{
			{Role: domain.RoleUser, Content: "hello"},
			{Role: domain.RoleAssistant, Content: "hi there"},
		}, history)
	})

	t.Run("foreign session", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: uuid.New()}, nil)

		_, err := f.svc.History(ctx, userID, sessionID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(nil, domain.ErrNotFound)

		_, err := f.svc.History(ctx, userID, sessionID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestChatService_Exchange(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()

	f := newChatFixture(t, nil)
	session := &domain.ChatSession{ID: sessionID, UserID: userID, Title: "New dialogue 14.03.26 09:00"}
	past := []domain.Message{
		{Role: domain.RoleUser, Content: "earlier"},
		{Role: domain.RoleAssistant, Content: "reply"},
	}

	f.sessions.On("Get", ctx, sessionID).Return(session, nil)
	f.messages.On("ListBySession", ctx, sessionID, 10).Return(past, nil)
	f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
		return req.Prompt == "hello" &&
			req.System == llm.DefaultSystemPrompt &&
			len(req.History) == 2 &&
			req.History[1].Role == llm.RoleAssistant
	}), "").Return(&llm.Response{Text: "hi there"}, nil)

	var saved []*domain.Message
	f.messages.On("Create", ctx, mock.AnythingOfType("*domain.Message")).
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*domain.Message)) }).
		Return(nil)
	f.provider.On("GenerateTitle", mock.Anything, "hello", "").Return("Greeting", nil)
	f.sessions.On("Update", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
		return s.Title == "Greeting" && s.UpdatedAt.Equal(fixedNow)
	})).Return(nil)
	f.cache.On("Invalidate", ctx, userID).Return(nil)

	result, err := f.svc.Exchange(ctx, userID, sessionID, " hello ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi there", result.Response)
	assert.Empty(t, result.AttachmentURL)

	require.Len(t, saved, 2)
	assert.Equal(t, domain.RoleUser, saved[0].Role)
	assert.Equal(t, "hello", saved[0].Content)
	assert.Equal(t, domain.RoleAssistant, saved[1].Role)
	assert.Equal(t, "hi there", saved[1].Content)

	f.sessions.AssertExpectations(t)
	f.provider.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestChatService_Exchange_TitleFallback(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()
	prompt := "Please explain how goroutines are scheduled on threads"

	f := newChatFixture(t, nil)
	f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID, Title: "New dialogue"}, nil)
	f.messages.On("ListBySession", ctx, sessionID, 10).Return([]domain.Message{}, nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)
	f.provider.On("Generate", ctx, mock.Anything, "").Return(&llm.Response{Text: "ok"}, nil)
	f.provider.On("GenerateTitle", mock.Anything, prompt, "").Return("", errors.New("quota"))
	f.sessions.On("Update", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool {
		return s.Title == llm.FallbackTitle(prompt)
	})).Return(nil)
	f.cache.On("Invalidate", ctx, userID).Return(nil)

	_, err := f.svc.Exchange(ctx, userID, sessionID, prompt, nil)
	require.NoError(t, err)
	f.sessions.AssertExpectations(t)
}

func TestChatService_Exchange_KeepsCustomTitleAndUsesPersona(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()

	f := newChatFixture(t, nil)
	f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID, Title: "Sleep"}, nil)
	f.messages.On("ListBySession", ctx, sessionID, 10).Return([]domain.Message{}, nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)
	f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
		return req.System == llm.DefaultPersonaPrompt
	}), "").Return(&llm.Response{Text: "rest more"}, nil)
	f.sessions.On("Update", ctx, mock.MatchedBy(func(s *domain.ChatSession) bool { return s.Title == "Sleep" })).Return(nil)
	f.cache.On("Invalidate", ctx, userID).Return(nil)

	result, err := f.svc.Exchange(ctx, userID, sessionID, "I have insomnia", nil)
	require.NoError(t, err)
	assert.Equal(t, "rest more", result.Response)
	f.provider.AssertNotCalled(t, "GenerateTitle", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_Exchange_WithDocument(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()

	uploads, err := NewUploadStore(t.TempDir(), "http://files.local/uploads/")
	require.NoError(t, err)

	f := newChatFixture(t, uploads)
	f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID, Title: "Notes"}, nil)
	f.messages.On("ListBySession", ctx, sessionID, 10).Return([]domain.Message{}, nil)
	f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
		return strings.HasPrefix(req.Prompt, "summarize") &&
			strings.Contains(req.Prompt, "[Extracted text from document 'notes.txt']:\nline one")
	}), "").Return(&llm.Response{Text: "a summary"}, nil)

	var saved []*domain.Message
	f.messages.On("Create", ctx, mock.AnythingOfType("*domain.Message")).
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*domain.Message)) }).
		Return(nil)
	f.sessions.On("Update", ctx, mock.Anything).Return(nil)
	f.cache.On("Invalidate", ctx, userID).Return(nil)

	result, err := f.svc.Exchange(ctx, userID, sessionID, "summarize", &Upload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Reader:      strings.NewReader("line one"),
	})
	require.NoError(t, err)
	assert.Equal(t, "a summary", result.Response)
	assert.True(t, strings.HasPrefix(result.AttachmentURL, "http://files.local/uploads/"+userID.String()+"_"))
	assert.True(t, strings.HasSuffix(result.AttachmentURL, ".txt"))

	require.Len(t, saved, 2)
	assert.Equal(t, "summarize (attached file: notes.txt)", saved[0].Content)
	f.provider.AssertExpectations(t)
}

func TestChatService_Exchange_Errors(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("empty prompt", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)

		_, err := f.svc.Exchange(ctx, userID, sessionID, "   ", nil)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})

	t.Run("foreign session", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: uuid.New()}, nil)

		_, err := f.svc.Exchange(ctx, userID, sessionID, "hello", nil)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		f := newChatFixture(t, nil)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)
		f.messages.On("ListBySession", ctx, sessionID, 10).Return([]domain.Message{}, nil)
		f.provider.On("Generate", ctx, mock.Anything, "").Return(nil, errors.New("upstream down"))

		_, err := f.svc.Exchange(ctx, userID, sessionID, "hello", nil)
		assert.ErrorContains(t, err, "upstream down")
		f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("provider failure removes the upload", func(t *testing.T) {
		dir := t.TempDir()
		uploads, err := NewUploadStore(dir, "")
		require.NoError(t, err)
		f := newChatFixture(t, uploads)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)
		f.messages.On("ListBySession", ctx, sessionID, 10).Return([]domain.Message{}, nil)
		f.provider.On("Generate", ctx, mock.Anything, "").Return(nil, errors.New("upstream down"))

		_, err = f.svc.Exchange(ctx, userID, sessionID, "summarize", &Upload{
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Reader:      strings.NewReader("line one"),
		})
		assert.ErrorContains(t, err, "upstream down")

		left, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("unsupported upload", func(t *testing.T) {
		uploads, err := NewUploadStore(t.TempDir(), "")
		require.NoError(t, err)
		f := newChatFixture(t, uploads)
		f.sessions.On("Get", ctx, sessionID).Return(&domain.ChatSession{ID: sessionID, UserID: userID}, nil)

		_, err = f.svc.Exchange(ctx, userID, sessionID, "run it", &Upload{
			Filename:    "notes.exe",
			ContentType: "application/x-msdownload",
			Reader:      strings.NewReader("MZ\x90\x00"),
		})
		assert.ErrorIs(t, err, ErrUnsupportedUpload)
	})
}

func TestChatService_Ask(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, nil)
	f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
		return req.Prompt == "hello" && len(req.History) == 0
	}), "").Return(&llm.Response{Text: "hi"}, nil)

	reply, err := f.svc.Ask(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)

	_, err = f.svc.Ask(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}
