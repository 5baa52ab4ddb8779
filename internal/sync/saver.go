package sync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"financas/internal/amqp"
	"financas/internal/ledger"
	"financas/internal/metrics"
	"financas/internal/storage"
)

// DefaultDebounce is the reference quiet period between the last mutation
// and the snapshot write.
const DefaultDebounce = 800 * time.Millisecond

// Saver subscribes to the ledger store and persists a snapshot after each
// burst of mutations. A successful local save optionally publishes a
// state-changed event for the cloud sync worker. Save failures are logged
// and swallowed; the next mutation is the retry trigger.
type Saver struct {
	store     *ledger.Store
	snapshots storage.SnapshotStore
	events    *amqp.Client // nil disables event publishing
	userID    string
	version   atomic.Int64
	debouncer *Debouncer
}

func NewSaver(store *ledger.Store, snapshots storage.SnapshotStore, events *amqp.Client, userID string, debounce time.Duration) *Saver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	s := &Saver{
		store:     store,
		snapshots: snapshots,
		events:    events,
		userID:    userID,
	}
	s.debouncer = NewDebouncer(debounce, s.persist)
	store.Subscribe(s.debouncer.Trigger)
	return s
}

func (s *Saver) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := s.store.Snapshot()
	if err := s.snapshots.Save(ctx, s.userID, snap); err != nil {
		metrics.SnapshotSaveFailures.Inc()
		slog.Warn("Snapshot save failed, will retry on next mutation",
			"user_id", s.userID,
			"error", err)
		return
	}
	metrics.SnapshotSaves.Inc()
	version := s.version.Add(1)

	if s.events == nil {
		return
	}
	if err := s.events.PublishStateChanged(ctx, s.userID, version); err != nil {
		// The snapshot is safely stored locally; the event is best effort.
		slog.Warn("State-changed publish failed", "user_id", s.userID, "error", err)
	}
}

// Flush persists any pending snapshot immediately. Called on shutdown.
func (s *Saver) Flush() {
	s.debouncer.Flush()
}

// Stop cancels pending saves.
func (s *Saver) Stop() {
	s.debouncer.Stop()
}
