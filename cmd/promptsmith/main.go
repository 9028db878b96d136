package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkwell-systems/promptsmith/internal/api"
	"github.com/inkwell-systems/promptsmith/internal/config"
	"github.com/inkwell-systems/promptsmith/internal/events"
	"github.com/inkwell-systems/promptsmith/internal/persona"
	"github.com/inkwell-systems/promptsmith/internal/provider"
	"github.com/inkwell-systems/promptsmith/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("promptsmith starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, JSON files otherwise.
	var db store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		db = pg
		slog.Info("database connected")
	} else {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			slog.Error("failed to open data dir", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		db = fs
		slog.Info("file store ready", "dir", cfg.DataDir)
	}
	defer db.Close()

	// AI provider is optional: without it every review uses the canned
	// persona fallbacks.
	var client provider.Client
	if cfg.UseAIReview {
		var err error
		client, err = provider.New(cfg.Provider, provider.Settings{
			APIKey: cfg.ProviderKey(),
			Model:  cfg.Model,
		})
		if err != nil {
			if errors.Is(err, provider.ErrAPIKey) {
				slog.Error("invalid provider API key", "provider", cfg.Provider, "error", err)
			} else {
				slog.Error("failed to build provider", "provider", cfg.Provider, "error", err)
			}
			os.Exit(1)
		}
		slog.Info("AI provider ready", "provider", client.Name(), "model", client.Model())
	} else {
		slog.Warn("AI review disabled — using canned persona responses")
	}
	reviewer := persona.NewReviewer(client, cfg.UseAIReview, slog.Default())

	// Eventing is optional; a nil client drops every publish.
	var ev *events.Client
	if cfg.NatsURL != "" {
		var err error
		ev, err = events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer ev.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — events disabled")
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, db, reviewer, ev, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("promptsmith ready", "port", cfg.Port, "live_ai", reviewer.LiveAI())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("promptsmith stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
