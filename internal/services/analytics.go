package services

import (
	"math"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
)

// Analytics is the pure read side over the ledger store. Every method
// derives its result from current store state on each call; consistency
// comes from never memoizing, not from invalidation.
type Analytics struct {
	store *ledger.Store
	now   func() time.Time
}

func NewAnalytics(store *ledger.Store) *Analytics {
	return &Analytics{store: store, now: time.Now}
}

// SetClock injects the time source. Used by tests.
func (a *Analytics) SetClock(now func() time.Time) { a.now = now }

// ToReferenceCurrency converts a transaction amount into BRL using its
// locked exchange rate. A missing rate falls back to the current table
// rate, then to 1, so the result is always finite.
func (a *Analytics) ToReferenceCurrency(tx core.Transaction) float64 {
	if tx.Currency == core.BRL || tx.Currency == "" {
		return tx.Amount
	}
	rate := tx.ExchangeRate
	if core.ClampAmount(rate) == 0 {
		rate = a.store.Rates().Rate(tx.Currency)
	}
	if core.ClampAmount(rate) == 0 {
		rate = 1
	}
	return tx.Amount * rate
}

// TotalIncome is the salary plus all income transactions in BRL.
func (a *Analytics) TotalIncome() float64 {
	total := a.store.Salary()
	for _, tx := range a.store.Transactions() {
		if tx.Type == core.Income {
			total += a.ToReferenceCurrency(tx)
		}
	}
	return total
}

// TotalExpenses sums all expense transactions in BRL.
func (a *Analytics) TotalExpenses() float64 {
	var total float64
	for _, tx := range a.store.Transactions() {
		if tx.Type == core.Expense {
			total += a.ToReferenceCurrency(tx)
		}
	}
	return total
}

// TotalSaved sums the reserve entries. Reserves are already expressed in
// the reference currency and are never converted.
func (a *Analytics) TotalSaved() float64 {
	var total float64
	for _, m := range a.store.SavedMoney() {
		total += m.Amount
	}
	return total
}

// TotalBalance is income minus expenses. Reserved money still counts as
// the user's own.
func (a *Analytics) TotalBalance() float64 {
	return a.TotalIncome() - a.TotalExpenses()
}

// AvailableBalance is the total balance minus the guarded reserve.
func (a *Analytics) AvailableBalance() float64 {
	return a.TotalIncome() - a.TotalExpenses() - a.TotalSaved()
}

// CategoryTotals groups expense transactions by category, summing BRL
// amounts. Iteration order of the result map is unspecified.
func (a *Analytics) CategoryTotals() map[string]float64 {
	totals := make(map[string]float64)
	for _, tx := range a.store.Transactions() {
		if tx.Type == core.Expense {
			totals[tx.Category] += a.ToReferenceCurrency(tx)
		}
	}
	return totals
}

// MonthSummary is one bucket of the trailing monthly series.
type MonthSummary struct {
	Label    string  `json:"label"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// MonthlyData returns the fixed six-month trailing window ending at the
// current month. Months without transactions report zeros, not absence.
func (a *Analytics) MonthlyData() []MonthSummary {
	now := a.now()
	out := make([]MonthSummary, 0, 6)
	for i := 5; i >= 0; i-- {
		start := core.MonthStart(now, -i)
		out = append(out, MonthSummary{
			Label: start.Format("Jan/06"),
			Year:  start.Year(),
			Month: int(start.Month()),
		})
	}
	for _, tx := range a.store.Transactions() {
		y, m, _ := tx.Date.Date()
		for i := range out {
			if out[i].Year != y || out[i].Month != int(m) {
				continue
			}
			if tx.Type == core.Income {
				out[i].Income += a.ToReferenceCurrency(tx)
			} else {
				out[i].Expenses += a.ToReferenceCurrency(tx)
			}
			break
		}
	}
	return out
}

// BudgetStatus is the live consumption of one budget.
type BudgetStatus struct {
	Category   string            `json:"category"`
	Limit      float64           `json:"limit"`
	Period     core.BudgetPeriod `json:"period"`
	Spent      float64           `json:"spent"`
	Percentage int               `json:"percentage"`
	Exceeded   bool              `json:"exceeded"`
}

// BudgetStatuses recomputes consumption for every stored budget from the
// ledger. A limit of zero reports 0% with the exceeded flag set whenever
// anything was spent; the ratio is never NaN or infinite.
func (a *Analytics) BudgetStatuses() []BudgetStatus {
	totals := a.CategoryTotals()
	budgets := a.store.Budgets()
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := totals[b.Category]
		status := BudgetStatus{
			Category: b.Category,
			Limit:    b.Limit,
			Period:   b.Period,
			Spent:    spent,
		}
		if b.Limit > 0 {
			status.Percentage = int(math.Round(spent / b.Limit * 100))
			status.Exceeded = spent > b.Limit
		} else {
			status.Percentage = 0
			status.Exceeded = spent > 0
		}
		out = append(out, status)
	}
	return out
}

// Summary bundles the balance figures for the dashboard.
type Summary struct {
	Salary           float64 `json:"salary"`
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpenses    float64 `json:"totalExpenses"`
	TotalSaved       float64 `json:"totalSaved"`
	TotalBalance     float64 `json:"totalBalance"`
	AvailableBalance float64 `json:"availableBalance"`
}

func (a *Analytics) Summary() Summary {
	income := a.TotalIncome()
	expenses := a.TotalExpenses()
	saved := a.TotalSaved()
	return Summary{
		Salary:           a.store.Salary(),
		TotalIncome:      income,
		TotalExpenses:    expenses,
		TotalSaved:       saved,
		TotalBalance:     income - expenses,
		AvailableBalance: income - expenses - saved,
	}
}
