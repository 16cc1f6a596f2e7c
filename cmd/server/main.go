package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/shaman-chat/internal/api"
	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/llm"
	"github.com/Rrens/shaman-chat/internal/llm/gemini"
	"github.com/Rrens/shaman-chat/internal/llm/ollama"
	"github.com/Rrens/shaman-chat/internal/llm/openai"
	"github.com/Rrens/shaman-chat/internal/logger"
	"github.com/Rrens/shaman-chat/internal/repository/redis"
	"github.com/Rrens/shaman-chat/internal/security"
	"github.com/Rrens/shaman-chat/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Logging
	if cfg.IsProduction() {
		logCfg.Format = "json"
	}
	logCloser, err := logger.Setup(logCfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Server failed")
	}
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log.Info().
		Str("env", cfg.Env).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Msg("Starting Sham'an AI API server")

	ctx := context.Background()

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		cfg.Auth.JWTSecret = "development-only-secret"
		log.Warn().Msg("JWT_SECRET is not set, using an insecure development secret")
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.close()

	var (
		cache   service.SessionCache
		limiter *redis.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()

		sessionCache := redis.NewSessionListCache(redisClient)
		if n, err := sessionCache.FlushAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush session list cache")
		} else if n > 0 {
			log.Info().Int64("keys", n).Msg("Flushed stale session list cache")
		}
		cache = sessionCache
		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		log.Info().Msg("Redis disabled: no rate limiting or session list cache")
	}

	llmRouter, err := newLLMRouter(cfg.LLM)
	if err != nil {
		return err
	}
	prompts, err := loadPrompts(cfg.LLM)
	if err != nil {
		return err
	}

	uploads, err := service.NewUploadStore(cfg.Upload.Dir, cfg.Upload.PublicURL)
	if err != nil {
		return err
	}

	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	deps := api.Dependencies{
		Auth: service.NewAuthService(store.users, jwtManager),
		Chat: service.NewChatService(store.sessions, store.messages, llmRouter, uploads, cache, service.ChatOptions{
			HistoryLimit: cfg.LLM.HistoryLimit,
			Prompts:      prompts,
		}),
		Legal: service.NewLegalService(cfg.Legal.Dir),
		JWT:   jwtManager,
		DB:    store.pinger,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newLLMRouter(cfg config.LLMConfig) (*llm.Router, error) {
	router := llm.NewRouter(cfg.DefaultProvider)
	router.RegisterProvider(openai.NewProvider(cfg.OpenAI, cfg.RequestTimeout))
	router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	router.RegisterProvider(ollama.NewProvider(cfg.Ollama, cfg.RequestTimeout))

	for _, info := range router.GetProvidersInfo() {
		log.Info().
			Str("provider", info.Name).
			Bool("configured", info.Configured).
			Bool("default", info.Default).
			Msg("LLM provider registered")
	}

	if _, err := router.GetProvider(""); err != nil {
		return nil, fmt.Errorf("default LLM provider unusable: %w", err)
	}
	return router, nil
}

func loadPrompts(cfg config.LLMConfig) (service.Prompts, error) {
	system, err := llm.LoadPrompt(cfg.SystemPromptPath, llm.DefaultSystemPrompt)
	if err != nil {
		return service.Prompts{}, err
	}
	persona, err := llm.LoadPrompt(cfg.PersonaPromptPath, llm.DefaultPersonaPrompt)
	if err != nil {
		return service.Prompts{}, err
	}
	return service.Prompts{System: system, Persona: persona}, nil
}
