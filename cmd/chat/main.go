package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rrens/shaman-chat/internal/apiclient"
	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/logger"
)

var (
	configPath string
	baseURL    string
	verbose    bool
	plain      bool

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "shaman",
	Short: "Terminal client for the Sham'an AI chat backend",
	Long: `shaman talks to a Sham'an AI backend from the terminal.

Run without arguments to start an interactive chat. Replies are rendered as
Markdown and can be read aloud when speech is enabled in the config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if baseURL != "" {
			loaded.Client.BaseURL = baseURL
		}
		if plain {
			loaded.Client.RenderMarkdown = false
		}
		cfg = loaded

		logCfg := cfg.Logging
		logCfg.File = clientLogFile(cfg.Client)
		if verbose {
			logCfg.Level = "debug"
		}
		closer, err := logger.Setup(logCfg, nil)
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "./configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "config file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL (overrides client.base_url)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to the log file")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print replies without Markdown rendering")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newClient builds an API client with the stored auth token and a CSRF token
func newClient(ctx context.Context) (*apiclient.Client, error) {
	opts := []apiclient.Option{apiclient.WithTimeout(cfg.Client.Timeout)}
	if cfg.Client.CSRFToken != "" {
		opts = append(opts, apiclient.WithCSRFToken(cfg.Client.CSRFToken))
	}

	token, err := loadToken(tokenFile(cfg.Client))
	if err != nil {
		log.Warn().Err(err).Msg("could not read stored token")
	}
	if token != "" {
		opts = append(opts, apiclient.WithAuthToken(token))
	}

	client, err := apiclient.New(cfg.Client.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	if client.CSRFToken() == "" {
		if _, err := client.FetchCSRFToken(ctx); err != nil {
			log.Warn().Err(err).Msg("could not fetch CSRF token")
		}
	}
	return client, nil
}

func clientLogFile(c config.ClientConfig) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shaman", "chat.log")
}
