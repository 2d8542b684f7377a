package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/procurelens/supplier-insights-backend/internal/ai"
	"github.com/procurelens/supplier-insights-backend/internal/api"
	"github.com/procurelens/supplier-insights-backend/internal/config"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── AI ────────────────────────────────────────────────────────────────────
	// Whether an external client exists is decided exactly once, here. With
	// no credential the orchestrator receives nil and the process serves
	// rule-based results for its entire lifetime.
	var external ai.Analyst
	provider := "fallback"
	if cfg.FallbackOnly() {
		logger.Warn("ai: no GROQ_API_KEY set, running in fallback-only mode")
	} else {
		external = ai.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
		provider = "groq"
		logger.Info("ai: using Groq", "model", cfg.GroqModel)
	}
	analyst := ai.NewOrchestrator(external, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(analyst, api.Config{
		Env:            cfg.Env,
		Provider:       provider,
		RequestTimeout: cfg.RequestTimeout,
		BatchLimit:     cfg.BatchLimit,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // must exceed the upstream call timeout
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
