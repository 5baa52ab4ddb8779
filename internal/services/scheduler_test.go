package services

import (
	"context"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestStore() *ledger.Store {
	s := ledger.New()
	s.SetClock(func() time.Time { return testNow })
	return s
}

func TestScheduler_ProcessDue_FiresOncePerPass(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	// A monthly rule 40 days old with no execution yet is more than one
	// period overdue, but a single pass fires exactly one occurrence.
	start := testNow.AddDate(0, 0, -40)
	rule := store.AddRecurring(core.RecurringRule{
		Description: "Aluguel",
		Amount:      200,
		Category:    "Moradia",
		Type:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   start,
		Active:      true,
	})

	fired := sched.ProcessDue(context.Background(), testNow)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	txs := store.Transactions()
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Amount != 200 || tx.Type != core.Expense {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if !tx.Date.Equal(testNow) {
		t.Errorf("transaction date = %v, want now", tx.Date)
	}
	if !tx.Recurring || tx.RecurringID != rule.ID {
		t.Error("transaction must be tagged with its source rule")
	}

	// The marker advances one period from the start date, not to now.
	got, _ := store.RecurringByID(rule.ID)
	want := start.AddDate(0, 1, 0)
	if got.LastExecuted == nil || !got.LastExecuted.Equal(want) {
		t.Errorf("lastExecuted = %v, want %v", got.LastExecuted, want)
	}
}

func TestScheduler_ProcessDue_BacklogDrainsOnePerPass(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	// Three months overdue: catching up takes three passes.
	start := testNow.AddDate(0, -3, -2)
	store.AddRecurring(core.RecurringRule{
		Description: "Plano",
		Amount:      50,
		Frequency:   core.Monthly,
		StartDate:   start,
		Active:      true,
	})

	total := 0
	for pass := 0; pass < 5; pass++ {
		total += sched.ProcessDue(context.Background(), testNow)
	}
	if total != 3 {
		t.Errorf("total fired = %d, want 3", total)
	}
	if got := len(store.Transactions()); got != 3 {
		t.Errorf("transactions = %d, want 3", got)
	}
}

func TestScheduler_ProcessDue_NotDueYet(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	store.AddRecurring(core.RecurringRule{
		Description: "Anual",
		Amount:      100,
		Frequency:   core.Yearly,
		StartDate:   testNow.AddDate(0, -1, 0),
		Active:      true,
	})

	if fired := sched.ProcessDue(context.Background(), testNow); fired != 0 {
		t.Errorf("fired = %d, want 0", fired)
	}
}

func TestScheduler_ProcessDue_InactiveRuleSkipped(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	store.AddRecurring(core.RecurringRule{
		Description: "Pausado",
		Amount:      100,
		Frequency:   core.Daily,
		StartDate:   testNow.AddDate(0, 0, -10),
		Active:      false,
	})

	if fired := sched.ProcessDue(context.Background(), testNow); fired != 0 {
		t.Errorf("fired = %d, want 0", fired)
	}
}

func TestScheduler_ProcessDue_EndDateReached(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	end := testNow.AddDate(0, 0, -1)
	store.AddRecurring(core.RecurringRule{
		Description: "Encerrado",
		Amount:      100,
		Frequency:   core.Daily,
		StartDate:   testNow.AddDate(0, 0, -30),
		EndDate:     &end,
		Active:      true,
	})

	if fired := sched.ProcessDue(context.Background(), testNow); fired != 0 {
		t.Errorf("fired = %d, want 0 after the end date", fired)
	}
}

func TestScheduler_ProcessDue_DueOnSameCalendarDay(t *testing.T) {
	store := newTestStore()
	sched := NewScheduler(store)

	// Next occurrence falls later today; the calendar-day match makes the
	// rule due even though the exact instant has not passed.
	start := testNow.AddDate(0, -1, 0).Add(5 * time.Hour)
	store.AddRecurring(core.RecurringRule{
		Description: "Hoje",
		Amount:      30,
		Frequency:   core.Monthly,
		StartDate:   start,
		Active:      true,
	})

	if fired := sched.ProcessDue(context.Background(), testNow); fired != 1 {
		t.Errorf("fired = %d, want 1 (same-day occurrence is due)", fired)
	}
}

func TestAdvancePeriod(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq core.Frequency
		want time.Time
	}{
		{"daily", core.Daily, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"weekly", core.Weekly, time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC)},
		{"monthly overflows into march", core.Monthly, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"yearly", core.Yearly, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"unknown defaults to monthly", core.Frequency("other"), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdvancePeriod(base, tt.freq); !got.Equal(tt.want) {
				t.Errorf("AdvancePeriod(%v, %v) = %v, want %v", base, tt.freq, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	start := testNow.AddDate(0, -2, 0)
	pastEnd := testNow.AddDate(0, 0, -5)
	futureEnd := testNow.AddDate(0, 1, 0)

	tests := []struct {
		name string
		rule core.RecurringRule
		want RuleState
	}{
		{
			name: "inactive wins over everything",
			rule: core.RecurringRule{Frequency: core.Monthly, StartDate: start, Active: false},
			want: StateInactive,
		},
		{
			name: "expired",
			rule: core.RecurringRule{Frequency: core.Monthly, StartDate: start, EndDate: &pastEnd, Active: true},
			want: StateExpired,
		},
		{
			name: "active and due",
			rule: core.RecurringRule{Frequency: core.Monthly, StartDate: start, EndDate: &futureEnd, Active: true},
			want: StateActiveDue,
		},
		{
			name: "active, not yet due",
			rule: core.RecurringRule{Frequency: core.Yearly, StartDate: testNow.AddDate(0, -1, 0), Active: true},
			want: StateActiveNotDue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.rule, testNow); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
