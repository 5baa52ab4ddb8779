package services

import (
	"time"

	"financas/internal/core"
)

// Occurrences computes up to n upcoming occurrence dates for a rule without
// touching its last-executed marker. It is projection-only: display and
// forecasting use it, firing never does.
//
// The anchor (last execution, else the start date) is itself the first
// occurrence when it falls within bounds. The end date is an inclusive
// boundary; nothing before the start date or after the end date is emitted.
func Occurrences(r core.RecurringRule, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	anchor := r.StartDate
	if r.LastExecuted != nil {
		anchor = *r.LastExecuted
	}

	out := make([]time.Time, 0, n)
	d := anchor
	// The guard on iterations bounds pathological rules whose anchor sits
	// far before the start date.
	for steps := 0; len(out) < n && steps < n+512; steps++ {
		if r.EndDate != nil && d.After(*r.EndDate) && !core.SameDay(d, *r.EndDate) {
			break
		}
		if !d.Before(r.StartDate) {
			out = append(out, d)
		}
		d = AdvancePeriod(d, r.Frequency)
	}
	return out
}
