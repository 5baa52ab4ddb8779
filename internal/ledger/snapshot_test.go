package ledger

import (
	"strings"
	"testing"
	"time"

	"financas/internal/core"
)

func populatedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore()
	s.SetSalary(5000)
	s.SetDarkMode(true)
	s.SetRates(core.Rates{USD: 5.2, EUR: 5.7})
	s.AddTransaction(core.Transaction{Description: "Mercado", Amount: 300, Category: "Alimentação"})
	s.AddRecurring(core.RecurringRule{Description: "Aluguel", Amount: 1500, Frequency: core.Monthly, Active: true})
	s.AddGoal(core.Goal{Name: "Viagem", TargetAmount: 3000})
	s.SetBudget(core.Budget{Category: "Lazer", Limit: 400})
	s.AddSavedMoney(core.SavedMoney{Amount: 250, Description: "Reserva"})
	return s
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src := populatedStore(t)

	raw, err := EncodePersisted(src.Snapshot())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	snap, err := DecodePersisted(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	dst := newTestStore()
	dst.Replace(snap)

	if dst.Salary() != 5000 {
		t.Errorf("salary = %v, want 5000", dst.Salary())
	}
	if !dst.DarkMode() {
		t.Error("dark mode lost")
	}
	if got := dst.Rates(); got.USD != 5.2 || got.EUR != 5.7 {
		t.Errorf("rates = %+v", got)
	}
	if len(dst.Transactions()) != 1 || len(dst.Recurring()) != 1 ||
		len(dst.Goals()) != 1 || len(dst.Budgets()) != 1 || len(dst.SavedMoney()) != 1 {
		t.Error("collections lost in round trip")
	}

	// A second round trip over unchanged state must be byte-identical.
	raw2, err := EncodePersisted(dst.Snapshot())
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if string(raw) != string(raw2) {
		t.Error("round trip is not idempotent")
	}
}

func TestDecodePersisted_BareSnapshotIsVersionZero(t *testing.T) {
	// The pre-versioned format is the snapshot object itself, no wrapper.
	raw := []byte(`{
		"salary": 4000,
		"transactions": [
			{"id": "t1", "description": "Luz", "amount": -80, "type": "expense",
			 "date": "2024-02-01T00:00:00Z", "currency": "XYZ"}
		],
		"darkMode": false
	}`)

	snap, err := DecodePersisted(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Salary != 4000 {
		t.Errorf("salary = %v, want 4000", snap.Salary)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(snap.Transactions))
	}

	// The v0 migration clamps the amount and collapses the unknown
	// currency onto the reference one.
	tx := snap.Transactions[0]
	if tx.Amount != 0 {
		t.Errorf("migrated amount = %v, want clamped 0", tx.Amount)
	}
	if tx.Currency != core.BRL {
		t.Errorf("migrated currency = %v, want BRL", tx.Currency)
	}
	if tx.ExchangeRate != 1 {
		t.Errorf("migrated rate = %v, want 1", tx.ExchangeRate)
	}
}

func TestDecodePersisted_RejectsNewerVersion(t *testing.T) {
	raw := []byte(`{"version": 99, "state": {"salary": 1}}`)
	if _, err := DecodePersisted(raw); err == nil {
		t.Fatal("expected error for unsupported version")
	} else if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecodePersisted_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `[1,2,3]`, `"a string"`} {
		if _, err := DecodePersisted([]byte(raw)); err == nil {
			t.Errorf("DecodePersisted(%q) expected error", raw)
		}
	}
}

func TestStore_ImportJSON_MalformedKeepsState(t *testing.T) {
	s := populatedStore(t)
	before := len(s.Transactions())

	s.ImportJSON([]byte("{broken"))

	if got := len(s.Transactions()); got != before {
		t.Errorf("transactions = %d, want untouched %d", got, before)
	}
	if s.Salary() != 5000 {
		t.Error("salary must survive a rejected import")
	}
}

func TestStore_Replace_IsWholesale(t *testing.T) {
	s := populatedStore(t)

	s.Replace(Snapshot{Salary: 100})

	if s.Salary() != 100 {
		t.Errorf("salary = %v, want 100", s.Salary())
	}
	if len(s.Transactions()) != 0 {
		t.Error("old transactions must not survive a replace")
	}
	if got := s.Rates(); got != core.DefaultRates() {
		t.Errorf("zero rates should normalize to defaults, got %+v", got)
	}
}

func TestSnapshot_NormalizeFillsSlices(t *testing.T) {
	raw, err := EncodePersisted(Snapshot{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, key := range []string{"transactions", "recurringTransactions", "goals", "budgets", "savedMoney"} {
		if !strings.Contains(string(raw), `"`+key+`":[]`) {
			t.Errorf("encoded empty snapshot should carry %q as [], got %s", key, raw)
		}
	}
}

func TestDecodePersisted_WrappedCurrentVersion(t *testing.T) {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	src := Snapshot{
		Salary: 1234,
		RecurringTransactions: []core.RecurringRule{
			{ID: "r1", Description: "Plano", Amount: 50, Frequency: core.Monthly, EndDate: &end, Active: true},
		},
	}
	raw, err := EncodePersisted(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	snap, err := DecodePersisted(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.RecurringTransactions) != 1 {
		t.Fatalf("rules = %d, want 1", len(snap.RecurringTransactions))
	}
	got := snap.RecurringTransactions[0]
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("endDate = %v, want %v", got.EndDate, end)
	}
}
