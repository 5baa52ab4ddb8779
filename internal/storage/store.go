// Package storage persists snapshots. One row per user holds the full
// versioned snapshot blob; the application never queries inside it.
package storage

import (
	"context"

	"financas/internal/ledger"
)

// SnapshotStore is the port every snapshot backend implements. Load's
// second return is false when the user has no saved snapshot yet. Save is
// an idempotent upsert; last write wins.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) (ledger.Snapshot, bool, error)
	Save(ctx context.Context, userID string, snap ledger.Snapshot) error
	Close() error
}
