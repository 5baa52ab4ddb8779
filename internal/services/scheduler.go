// Package services holds the read-side engines (aggregation, projection,
// pattern analysis) and the recurrence scheduler that operate on the ledger
// store. All read-side functions derive from current store state on every
// call; nothing is memoized.
package services

import (
	"context"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/metrics"
)

// Scheduler materializes due recurring rules into ledger transactions.
// It is the only writer of a rule's last-executed marker.
type Scheduler struct {
	store *ledger.Store
}

func NewScheduler(store *ledger.Store) *Scheduler {
	return &Scheduler{store: store}
}

// RuleState classifies a rule relative to a reference instant.
type RuleState string

const (
	StateActiveDue    RuleState = "active-due"
	StateActiveNotDue RuleState = "active-not-due"
	StateInactive     RuleState = "inactive"
	StateExpired      RuleState = "expired"
)

// Classify evaluates the rule state machine against now.
func Classify(r core.RecurringRule, now time.Time) RuleState {
	if !r.Active {
		return StateInactive
	}
	if r.EndDate != nil && !now.Before(*r.EndDate) && !core.SameDay(now, *r.EndDate) {
		return StateExpired
	}
	if due, _ := nextDue(r, now); due {
		return StateActiveDue
	}
	return StateActiveNotDue
}

// nextDue computes the rule's next occurrence date and whether it is due.
// The anchor is the last execution, or the start date for a rule that has
// never fired. A rule is due when the anchor advanced by one period has
// been reached (or falls on today), the rule is active and now has not
// passed the end date.
func nextDue(r core.RecurringRule, now time.Time) (bool, time.Time) {
	anchor := r.StartDate
	if r.LastExecuted != nil {
		anchor = *r.LastExecuted
	}
	next := AdvancePeriod(anchor, r.Frequency)
	if !r.Active {
		return false, next
	}
	if r.EndDate != nil && !now.Before(*r.EndDate) {
		return false, next
	}
	return !next.After(now) || core.SameDay(next, now), next
}

// AdvancePeriod moves t forward by one period of the given frequency.
// Month and year steps use calendar arithmetic, so a Jan 31 monthly rule
// lands on the normalized overflow date in short months.
func AdvancePeriod(t time.Time, f core.Frequency) time.Time {
	switch f {
	case core.Daily:
		return t.AddDate(0, 0, 1)
	case core.Weekly:
		return t.AddDate(0, 0, 7)
	case core.Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// ProcessDue fires every due rule exactly once and returns the number of
// transactions created. A rule overdue by several periods advances a single
// step per pass; catching up takes one pass per missed period. Calling this
// with no due rules has no observable effect.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) int {
	fired := 0
	for _, r := range s.store.Recurring() {
		due, next := nextDue(r, now)
		if !due {
			continue
		}

		tx := core.Transaction{
			Description: r.Description,
			Amount:      r.Amount,
			Category:    r.Category,
			Type:        r.Type,
			Date:        now,
			Currency:    r.Currency,
			Tags:        r.Tags,
			Recurring:   true,
			RecurringID: r.ID,
		}
		created := s.store.AddTransaction(tx)

		// Advance the marker by one period from the anchor rather than
		// jumping to now, so a multi-period backlog drains one occurrence
		// per pass instead of being silently skipped.
		s.store.MarkExecuted(r.ID, next)

		fired++
		metrics.SchedulerFirings.Inc()
		metrics.TransactionsCreated.Inc()
		slog.InfoContext(ctx, "Created transaction from recurring rule",
			"rule_id", r.ID,
			"transaction_id", created.ID,
			"description", r.Description,
			"amount", r.Amount,
			"frequency", r.Frequency)
	}

	metrics.SchedulerPasses.Inc()
	if fired > 0 {
		slog.InfoContext(ctx, "Recurring processing complete",
			"fired", fired,
			"processing_date", now.Format("2006-01-02"))
	}
	return fired
}

// Run processes due rules once immediately, then on every tick until the
// context is cancelled. The reference cadence is hourly.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	s.ProcessDue(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.ProcessDue(ctx, time.Now())
		}
	}
}
