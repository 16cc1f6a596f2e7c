package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/logger"
	"github.com/Rrens/shaman-chat/internal/repository/postgres"
)

var steps int

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	Long: `migrate applies the SQL files under database.migrations_path to the
PostgreSQL database. The SQLite driver creates its schema on open and needs no
migrations.`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, source, err := database()
		if err != nil {
			return err
		}
		return postgres.RunMigrations(dsn, source)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1, got %d", steps)
		}
		dsn, source, err := database()
		if err != nil {
			return err
		}
		if err := postgres.RollbackMigrations(dsn, source, steps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, source, err := database()
		if err != nil {
			return err
		}
		version, dirty, err := postgres.MigrationVersion(dsn, source)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

// database loads the config and returns the postgres DSN and migration source
func database() (dsn, source string, err error) {
	cfg, err := config.Load()
	if err != nil {
		return "", "", err
	}
	if _, err := logger.Setup(cfg.Logging, os.Stderr); err != nil {
		return "", "", err
	}
	if cfg.Database.Driver != "postgres" {
		return "", "", fmt.Errorf("database.driver is %q, migrations only apply to postgres", cfg.Database.Driver)
	}

	dsn, source = cfg.Database.DSN(), cfg.Database.MigrationsPath
	fmt.Printf("Database %s:%d/%s, migrations from %s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, source)
	return dsn, source, nil
}
