package services

import (
	"testing"
	"time"

	"financas/internal/core"
)

func TestWeekdayPatterns_FixedSevenDays(t *testing.T) {
	a := newTestAnalytics(newTestStore())

	got := a.WeekdayPatterns()
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7 even with no data", len(got))
	}
	if got[0].Label != "Domingo" || got[6].Label != "Sábado" {
		t.Errorf("order = %q..%q, want Domingo..Sábado", got[0].Label, got[6].Label)
	}
	for _, p := range got {
		if p.AverageSpending != 0 || p.Percentage != 0 {
			t.Errorf("empty day %s has nonzero figures: %+v", p.Label, p)
		}
		if p.Trend != TrendStable {
			t.Errorf("empty day %s trend = %q, want stable", p.Label, p.Trend)
		}
	}
}

func TestWeekdayPatterns_AveragesAndTrend(t *testing.T) {
	store := newTestStore()
	// 2024-03-10 is a Sunday.
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	store.AddTransaction(core.Transaction{Description: "a", Amount: 100, Type: core.Expense, Date: sunday})
	store.AddTransaction(core.Transaction{Description: "b", Amount: 300, Type: core.Expense, Date: sunday.AddDate(0, 0, 7)})
	store.AddTransaction(core.Transaction{Description: "c", Amount: 10, Type: core.Expense, Date: monday})
	// Income never counts toward spending patterns.
	store.AddTransaction(core.Transaction{Description: "d", Amount: 9999, Type: core.Income, Date: monday})

	a := newTestAnalytics(store)
	got := a.WeekdayPatterns()

	sun := got[0]
	if sun.Count != 2 || !almostEqual(sun.AverageSpending, 200) {
		t.Errorf("Sunday = %+v, want count 2 average 200", sun)
	}

	mon := got[1]
	if mon.Count != 1 || !almostEqual(mon.AverageSpending, 10) {
		t.Errorf("Monday = %+v, want count 1 average 10", mon)
	}

	// Sum of averages is 210; Sunday holds 200 of it.
	if !almostEqual(sun.Percentage, 200.0/210*100) {
		t.Errorf("Sunday percentage = %v", sun.Percentage)
	}

	// Overall mean of per-day averages is 30. Sunday (200) is well above
	// 120% of it, Monday (10) below 80%, the empty days below too.
	if sun.Trend != TrendIncreasing {
		t.Errorf("Sunday trend = %q, want increasing", sun.Trend)
	}
	if mon.Trend != TrendDecreasing {
		t.Errorf("Monday trend = %q, want decreasing", mon.Trend)
	}
}
