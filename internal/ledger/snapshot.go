package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"financas/internal/core"
)

// Snapshot is the full serialized state: the five collections plus salary,
// dark-mode flag and currency table. Local persistence and the cloud blob
// use the same shape.
type Snapshot struct {
	Salary                float64              `json:"salary"`
	Transactions          []core.Transaction   `json:"transactions"`
	RecurringTransactions []core.RecurringRule `json:"recurringTransactions"`
	Goals                 []core.Goal          `json:"goals"`
	Budgets               []core.Budget        `json:"budgets"`
	SavedMoney            []core.SavedMoney    `json:"savedMoney"`
	DarkMode              bool                 `json:"darkMode"`
	Currencies            core.Rates           `json:"currencies"`
}

// SnapshotVersion is the current persisted-form schema version.
const SnapshotVersion = 1

// persisted wraps a snapshot with its schema version for local storage.
type persisted struct {
	Version int      `json:"version"`
	State   Snapshot `json:"state"`
}

// migrations[v] upgrades a snapshot from version v to v+1. New schema
// changes append a transform here so upgrades compose.
var migrations = []func(*Snapshot){
	normalizeAmountsAndCurrencies, // v0 -> v1
}

// normalizeAmountsAndCurrencies guarantees every transaction and recurring
// rule carries a finite amount, a known currency and a positive exchange
// rate. Pre-versioning snapshots could miss any of these.
func normalizeAmountsAndCurrencies(s *Snapshot) {
	for i := range s.Transactions {
		tx := &s.Transactions[i]
		tx.Amount = core.ClampAmount(tx.Amount)
		tx.Category = core.NormalizeCategory(tx.Category)
		tx.Type = core.NormalizeType(tx.Type)
		tx.Currency = core.ParseCurrency(string(tx.Currency))
		if tx.Currency == core.BRL || core.ClampAmount(tx.ExchangeRate) == 0 {
			tx.ExchangeRate = 1
		}
	}
	for i := range s.RecurringTransactions {
		r := &s.RecurringTransactions[i]
		r.Amount = core.ClampAmount(r.Amount)
		r.Category = core.NormalizeCategory(r.Category)
		r.Type = core.NormalizeType(r.Type)
		r.Currency = core.ParseCurrency(string(r.Currency))
	}
	s.Salary = core.ClampAmount(s.Salary)
	s.Currencies = s.Currencies.Normalize()
}

// normalize fills nil collections so a snapshot is always fully populated.
func (s *Snapshot) normalize() {
	if s.Transactions == nil {
		s.Transactions = []core.Transaction{}
	}
	if s.RecurringTransactions == nil {
		s.RecurringTransactions = []core.RecurringRule{}
	}
	if s.Goals == nil {
		s.Goals = []core.Goal{}
	}
	if s.Budgets == nil {
		s.Budgets = []core.Budget{}
	}
	if s.SavedMoney == nil {
		s.SavedMoney = []core.SavedMoney{}
	}
	s.Currencies = s.Currencies.Normalize()
}

// EncodePersisted serializes a snapshot in its versioned persisted form.
func EncodePersisted(s Snapshot) ([]byte, error) {
	s.normalize()
	return json.Marshal(persisted{Version: SnapshotVersion, State: s})
}

// DecodePersisted parses a persisted snapshot and runs the migration
// pipeline up to the current version. Both the versioned wrapper and a bare
// snapshot object (treated as version 0) are accepted.
func DecodePersisted(raw []byte) (Snapshot, error) {
	var probe struct {
		Version int             `json:"version"`
		State   json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	var snap Snapshot
	version := probe.Version
	if len(probe.State) > 0 {
		if err := json.Unmarshal(probe.State, &snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot state: %w", err)
		}
	} else {
		// Bare snapshot object from the pre-versioned format.
		version = 0
		if err := json.Unmarshal(raw, &snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
		}
	}
	if version < 0 {
		version = 0
	}
	if version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported %d", version, SnapshotVersion)
	}
	for v := version; v < SnapshotVersion; v++ {
		migrations[v](&snap)
	}
	snap.normalize()
	return snap, nil
}

// Snapshot captures the full store state as one consistent value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Salary:                s.salary,
		Transactions:          append([]core.Transaction{}, s.transactions...),
		RecurringTransactions: append([]core.RecurringRule{}, s.recurring...),
		Goals:                 append([]core.Goal{}, s.goals...),
		Budgets:               append([]core.Budget{}, s.budgets...),
		SavedMoney:            append([]core.SavedMoney{}, s.saved...),
		DarkMode:              s.darkMode,
		Currencies:            s.rates,
	}
	return snap
}

// Replace swaps the entire store state for the given snapshot in one atomic
// transition. Used by import and by external storage-change notifications
// (last-writer-wins, no merge).
func (s *Store) Replace(snap Snapshot) {
	snap.normalize()
	s.mu.Lock()
	s.salary = core.ClampAmount(snap.Salary)
	s.darkMode = snap.DarkMode
	s.rates = snap.Currencies.Normalize()
	s.transactions = append([]core.Transaction{}, snap.Transactions...)
	s.recurring = append([]core.RecurringRule{}, snap.RecurringTransactions...)
	s.goals = append([]core.Goal{}, snap.Goals...)
	s.budgets = append([]core.Budget{}, snap.Budgets...)
	s.saved = append([]core.SavedMoney{}, snap.SavedMoney...)
	s.mu.Unlock()
	s.notify()
}

// ImportJSON replaces the store state with the parsed snapshot. Malformed
// input is logged and ignored; the current state stays untouched rather
// than being partially overwritten.
func (s *Store) ImportJSON(raw []byte) {
	snap, err := DecodePersisted(raw)
	if err != nil {
		slog.Warn("Snapshot import rejected, keeping current state", "error", err)
		return
	}
	s.Replace(snap)
}
