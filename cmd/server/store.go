package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/shaman-chat/internal/api/handler"
	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/Rrens/shaman-chat/internal/repository/postgres"
	"github.com/Rrens/shaman-chat/internal/repository/sqlite"
)

// store bundles the repositories of the configured database driver
type store struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	messages domain.MessageRepository
	pinger   handler.Pinger
	close    func()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case "postgres":
		if err := postgres.RunMigrations(cfg.DSN(), cfg.MigrationsPath); err != nil {
			return nil, err
		}
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to PostgreSQL")
		return &store{
			users:    postgres.NewUserRepository(db),
			sessions: postgres.NewSessionRepository(db),
			messages: postgres.NewMessageRepository(db),
			pinger:   db,
			close:    db.Close,
		}, nil
	default:
		db, err := sqlite.NewDB(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		log.Info().Str("path", cfg.Path).Msg("Opened SQLite database")
		return &store{
			users:    sqlite.NewUserRepository(db),
			sessions: sqlite.NewSessionRepository(db),
			messages: sqlite.NewMessageRepository(db),
			pinger:   db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close database")
				}
			},
		}, nil
	}
}
