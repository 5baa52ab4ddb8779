package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/backend"
	"financas/internal/config"
	apphttp "financas/internal/http"
	"financas/internal/ledger"
	"financas/internal/services"
	"financas/internal/sync"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the snapshot backend and seed the in-memory ledger from it.
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

	store := ledger.New()
	if snap, found, err := snapshots.Load(ctx, cfg.LocalUserID); err != nil {
		logger.Error("Failed to load snapshot", "error", err, "user", cfg.LocalUserID)
		os.Exit(1)
	} else if found {
		store.Replace(snap)
		logger.Info("Loaded snapshot", "user", cfg.LocalUserID, "transactions", len(snap.Transactions))
	} else {
		logger.Info("No snapshot found, starting empty", "user", cfg.LocalUserID)
	}

	// AMQP is optional: without it saves stay local and nothing is
	// published for the sync worker.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	saver := sync.NewSaver(store, snapshots, events, cfg.LocalUserID, cfg.SaveDebounce)
	defer saver.Stop()

	categorizer := services.NewCategorizer()
	if cfg.CategoryRulesFile != "" {
		categorizer, err = services.LoadCategorizer(cfg.CategoryRulesFile)
		if err != nil {
			logger.Error("Failed to load category rules", "error", err, "file", cfg.CategoryRulesFile)
			os.Exit(1)
		}
	}

	scheduler := services.NewScheduler(store)
	analytics := services.NewAnalytics(store)

	syncTokens, err := config.ParseSyncTokens(cfg.SyncTokens)
	if err != nil {
		logger.Error("Failed to parse sync tokens", "error", err)
		os.Exit(1)
	}

	server := apphttp.NewServer(apphttp.Options{
		Store:          store,
		Analytics:      analytics,
		Scheduler:      scheduler,
		Categorizer:    categorizer,
		Snapshots:      snapshots,
		SyncTokens:     syncTokens,
		MaxSyncPayload: cfg.MaxSyncPayload,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financas server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx, cfg.SchedulerInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		saver.Flush()
		os.Exit(1)
	}

	// Persist whatever is still pending before exit.
	saver.Flush()
	logger.Info("Server stopped gracefully")
}
