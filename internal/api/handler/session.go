package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Rrens/shaman-chat/internal/api/middleware"
	"github.com/Rrens/shaman-chat/internal/api/response"
	"github.com/Rrens/shaman-chat/internal/service"
	"github.com/google/uuid"
)

type SessionHandler struct {
	chatService *service.ChatService
}

func NewSessionHandler(chatService *service.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// List returns the caller's sessions, newest first
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessions, err := h.chatService.ListSessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, sessions)
}

// Create creates a new session. The body is optional.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.chatService.CreateSession(r.Context(), userID, req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, session)
}

// Messages returns the transcript of the session named by ?uuid=
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.URL.Query().Get("uuid"))
	if err != nil {
		response.BadRequest(w, "invalid session uuid")
		return
	}

	history, err := h.chatService.History(r.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, history)
}
