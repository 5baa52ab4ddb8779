package sync

import (
	"context"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/storage"
)

func TestSaver_PersistsAfterBurst(t *testing.T) {
	store := ledger.New()
	snapshots := storage.NewMemoryStore()
	saver := NewSaver(store, snapshots, nil, "local", 20*time.Millisecond)
	defer saver.Stop()

	store.AddTransaction(core.Transaction{Description: "a", Amount: 1})
	store.AddTransaction(core.Transaction{Description: "b", Amount: 2})
	store.SetSalary(5000)

	// Inside the quiet period nothing is written yet.
	if _, found, _ := snapshots.Load(context.Background(), "local"); found {
		t.Error("snapshot written before the debounce window elapsed")
	}

	time.Sleep(80 * time.Millisecond)

	snap, found, err := snapshots.Load(context.Background(), "local")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(snap.Transactions) != 2 || snap.Salary != 5000 {
		t.Errorf("snapshot = %+v, want the full burst in one write", snap)
	}
}

func TestSaver_FlushWritesPendingState(t *testing.T) {
	store := ledger.New()
	snapshots := storage.NewMemoryStore()
	saver := NewSaver(store, snapshots, nil, "local", time.Hour)
	defer saver.Stop()

	store.SetSalary(1234)
	saver.Flush()

	snap, found, _ := snapshots.Load(context.Background(), "local")
	if !found || snap.Salary != 1234 {
		t.Errorf("flush did not persist: found=%v snap=%+v", found, snap)
	}
}
