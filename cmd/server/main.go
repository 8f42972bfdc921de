// Package main provides notes-server, the shared notes API and its
// maintenance commands.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shared-notes/internal/config"
	"shared-notes/internal/db"
)

var (
	// configDir is searched for config.yaml.
	configDir string
	// envFile is loaded into the environment before the config is read.
	envFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "notes-server",
	Short:         "Password-protected shared notes API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides data.dir)")
	rootCmd.PersistentFlags().String("uploads", "", "uploads directory (overrides uploads.dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(setPasswordCmd)
}

// loadConfig reads the configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configDir, envFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(setupLogger(cfg.LogLevel, cfg.LogFormat))
	return cfg, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openDB(cfg *config.Config) (*db.DB, error) {
	database, err := db.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

// jwtSecret returns the configured secret or a random one. Tokens signed with
// a random secret stop validating when the process restarts.
func jwtSecret(cfg *config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generate JWT secret: %w", err)
	}
	slog.Warn("generated a random JWT secret, set NOTES_AUTH_JWT_SECRET to keep sessions across restarts")
	return hex.EncodeToString(secretBytes), nil
}
