package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shared-notes/internal/auth"
	"shared-notes/internal/handlers"
	"shared-notes/internal/metrics"
	"shared-notes/internal/sweeper"
	"shared-notes/internal/uploads"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the trash retention sweeper",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides http.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.InitialPassword != "" {
		seeded, err := database.SeedPassword(ctx, cfg.InitialPassword)
		if err != nil {
			return fmt.Errorf("seed password: %w", err)
		}
		if seeded {
			slog.Info("initial password set from configuration")
		}
	}

	secret, err := jwtSecret(cfg)
	if err != nil {
		return err
	}

	wallpapers, err := uploads.New(cfg.UploadsDir, cfg.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("prepare uploads: %w", err)
	}

	var (
		m        *metrics.Metrics
		observer sweeper.Observer
	)
	if cfg.MetricsEnabled {
		m = metrics.New()
		observer = m
	}

	sw := sweeper.New(database, cfg.RetentionWindow, observer)
	h := handlers.New(database, auth.New(database, secret), sw, wallpapers, m)

	router := h.Router(handlers.RouterOptions{
		MetricsPath:    cfg.MetricsPath,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sw.Run(ctx, cfg.RetentionInterval)

	printBanner(cfg.Addr(), cfg.DatabasePath(), cfg.UploadsDir, cfg.MetricsEnabled, cfg.MetricsPath)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func printBanner(addr, dbPath, uploadsDir string, metricsEnabled bool, metricsPath string) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	cyan.Println("shared notes")
	green.Print("  ▶ ")
	fmt.Printf("Listening: %s\n", addr)
	green.Print("  ▶ ")
	fmt.Printf("Database:  %s\n", dbPath)
	green.Print("  ▶ ")
	fmt.Printf("Uploads:   %s\n", uploadsDir)
	if metricsEnabled {
		green.Print("  ▶ ")
		fmt.Printf("Metrics:   %s\n", metricsPath)
	}
	fmt.Println()
}
