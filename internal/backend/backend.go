// Package backend builds the configured snapshot store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/storage"
)

// BackendType selects the snapshot persistence technology.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid returns true if the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Config holds what each backend needs to come up.
type Config struct {
	Type         BackendType
	SQLiteDBPath string
	PostgresURL  string
}

// Validate checks backend-specific requirements.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	}
	return nil
}

// Open creates the snapshot store for the given configuration. Callers own
// the store and must Close it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (storage.SnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite snapshot store", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize Postgres repository: %w", err)
		}
		logger.Info("Initialized Postgres snapshot store")
		return repo, nil

	default:
		logger.Info("Initialized in-memory snapshot store")
		return storage.NewMemoryStore(), nil
	}
}
