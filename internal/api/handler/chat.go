package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/Rrens/shaman-chat/internal/api/middleware"
	"github.com/Rrens/shaman-chat/internal/api/response"
	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/Rrens/shaman-chat/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// multipartSlack covers form fields and part headers on top of the file itself
const multipartSlack = 1 << 20

type dialogueRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// DialogueResponse is the reply to both dialogue endpoints
type DialogueResponse struct {
	Response               string `json:"response"`
	AttachmentProcessedURL string `json:"attachment_processed_url,omitempty"`
}

// ChatHandler handles message exchange endpoints
type ChatHandler struct {
	chatService *service.ChatService
	maxUpload   int64
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, maxUpload int64) *ChatHandler {
	return &ChatHandler{chatService: chatService, maxUpload: maxUpload}
}

// Dialogue answers a single prompt outside of any session
func (h *ChatHandler) Dialogue(w http.ResponseWriter, r *http.Request) {
	var req dialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	reply, err := h.chatService.Ask(r.Context(), req.Prompt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, DialogueResponse{Response: reply})
}

// DialogueWithFile answers a message inside a session, with an optional attached file
func (h *ChatHandler) DialogueWithFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartSlack)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, "file is too large")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	rawID := r.FormValue("chat_session_uuid")
	if rawID == "" {
		response.BadRequest(w, "chat_session_uuid is required")
		return
	}
	sessionID, err := uuid.Parse(rawID)
	if err != nil {
		response.BadRequest(w, "invalid chat_session_uuid")
		return
	}

	var upload *service.Upload
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		response.BadRequest(w, "invalid file part")
		return
	default:
		defer file.Close()
		if header.Size > h.maxUpload {
			response.BadRequest(w, "file is too large")
			return
		}
		upload = uploadFrom(file, header)
	}

	result, err := h.chatService.Exchange(r.Context(), userID, sessionID, r.FormValue("prompt"), upload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.OK(w, DialogueResponse{
		Response:               result.Response,
		AttachmentProcessedURL: result.AttachmentURL,
	})
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) *service.Upload {
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "chat session not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrEmptyPrompt):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrUnsupportedUpload):
		response.BadRequest(w, err.Error())
	default:
		log.Error().Err(err).Msg("chat request failed")
		response.InternalError(w, "failed to get a reply from the assistant")
	}
}
