package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pdfstream/internal/adapter/weaviate"
	"pdfstream/internal/app"
	"pdfstream/internal/config"
	"pdfstream/internal/logger"
)

func main() {
	// Initialize structured logger
	baseLogger := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(baseLogger)

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. External Dependencies (DB, migrations, Weaviate, NSQ, Gemini)
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()
	defer deps.Embedder.Close()

	slog.Info("migrations applied successfully")

	// 3. Wire Application
	vecStore := weaviate.NewStore(deps.WeaviateClient)
	application, err := app.New(cfg, deps.DB, vecStore, deps.NSQProducer, deps.Embedder, deps.Fetcher)
	if err != nil {
		slog.Error("failed to wire application", "error", err)
		os.Exit(1)
	}

	// 4. Serve until signalled
	if err := application.Run(ctx); err != nil {
		slog.Error("application exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}
