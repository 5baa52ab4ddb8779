package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financas/internal/amqp"
	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/metrics"
	"financas/internal/sync"
)

// The sync worker drains state-changed events from the queue and pushes
// the owner's latest snapshot to the cloud endpoint, so the API server
// never blocks on the upstream.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting sync-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}
	if cfg.CloudSyncURL == "" {
		logger.Error("CLOUD_SYNC_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots, err := backend.Open(ctx, backend.Config{
		Type:         backend.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		PostgresURL:  cfg.PostgresURL,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize snapshot backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer snapshots.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	cloud := sync.NewClient(cfg.CloudSyncURL, cfg.CloudSyncToken)

	handler := func(msg *amqp.StateChangedMessage) error {
		hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		snap, found, err := snapshots.Load(hctx, msg.UserID)
		if err != nil {
			return err
		}
		if !found {
			// The snapshot may have been deleted after the event was
			// queued. Nothing to push.
			logger.Warn("Snapshot not found, skipping", "user", msg.UserID, "version", msg.Version)
			return nil
		}

		if err := cloud.Save(hctx, snap); err != nil {
			metrics.CloudSyncFailures.Inc()
			return err
		}
		metrics.CloudSyncSaves.Inc()
		logger.Info("Snapshot pushed", "user", msg.UserID, "version", msg.Version)
		return nil
	}

	if err := amqpClient.ConsumeStateChanged(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
