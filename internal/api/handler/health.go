package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/shaman-chat/internal/api/middleware"
	"github.com/Rrens/shaman-chat/internal/api/response"
	"github.com/Rrens/shaman-chat/internal/service"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity
func ReadyCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// CSRFToken hands out the token expected in the X-CSRF-Token header
func CSRFToken(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"csrf_token": middleware.CSRFToken(r),
	})
}

// ListLLMProviders returns the registered LLM providers
func ListLLMProviders(chatService *service.ChatService, defaultProvider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        chatService.Providers(),
			"default_provider": defaultProvider,
		})
	}
}
