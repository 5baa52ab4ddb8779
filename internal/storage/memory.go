package storage

import (
	"context"
	"sync"

	"financas/internal/ledger"
)

// MemoryStore keeps snapshots in memory. Default backend for development
// and the fake of choice in tests.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (ledger.Snapshot, bool, error) {
	m.mu.Lock()
	raw, ok := m.blobs[userID]
	m.mu.Unlock()
	if !ok {
		return ledger.Snapshot{}, false, nil
	}
	snap, err := ledger.DecodePersisted(raw)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (m *MemoryStore) Save(_ context.Context, userID string, snap ledger.Snapshot) error {
	raw, err := ledger.EncodePersisted(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[userID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
