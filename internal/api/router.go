package api

import (
	"net/http"
	"strings"

	"github.com/Rrens/shaman-chat/internal/api/handler"
	customMiddleware "github.com/Rrens/shaman-chat/internal/api/middleware"
	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/security"
	"github.com/Rrens/shaman-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Auth    *service.AuthService
	Chat    *service.ChatService
	Legal   *service.LegalService
	JWT     *security.JWTManager
	DB      handler.Pinger
	Limiter customMiddleware.Limiter // nil disables rate limiting
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", customMiddleware.CSRFHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(customMiddleware.CSRF(cfg.IsProduction(), cfg.Security.CSRFAuthKey))

	authHandler := handler.NewAuthHandler(deps.Auth, cfg.Auth.CookieName, cfg.IsProduction())
	chatHandler := handler.NewChatHandler(deps.Chat, cfg.Upload.MaxBytes)
	sessionHandler := handler.NewSessionHandler(deps.Chat)
	legalHandler := handler.NewLegalHandler(deps.Legal)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWT, cfg.Auth.CookieName)

	// Stored uploads, linked from attachment_processed_url
	if cfg.Upload.PublicURL != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(cfg.Upload.Dir)))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		if deps.DB != nil {
			r.Get("/ready", handler.ReadyCheck(deps.DB))
		}
		r.Get("/csrf", handler.CSRFToken)
		r.Get("/legal/{docType}", legalHandler.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			if deps.Limiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
			}

			r.Get("/llm-providers", handler.ListLLMProviders(deps.Chat, cfg.LLM.DefaultProvider))

			r.Post("/dialogue", chatHandler.Dialogue)
			r.Post("/dialogue_with_file", chatHandler.DialogueWithFile)

			r.Get("/chat_sessions", sessionHandler.List)
			r.Post("/chat_session_create", sessionHandler.Create)
			r.Get("/chat_session_messages", sessionHandler.Messages)
		})
	})

	return r
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
