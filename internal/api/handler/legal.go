package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/shaman-chat/internal/api/response"
	"github.com/Rrens/shaman-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// LegalHandler serves the terms of use and privacy policy
type LegalHandler struct {
	legalService *service.LegalService
}

func NewLegalHandler(legalService *service.LegalService) *LegalHandler {
	return &LegalHandler{legalService: legalService}
}

// Get returns the document named by the docType path parameter
func (h *LegalHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.legalService.Get(r.Context(), chi.URLParam(r, "docType"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownDocument) {
			response.NotFound(w, err.Error())
			return
		}
		log.Error().Err(err).Msg("failed to load legal document")
		response.InternalError(w, "failed to load document")
		return
	}

	response.OK(w, doc)
}
