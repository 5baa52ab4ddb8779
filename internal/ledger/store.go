// Package ledger implements the state container that owns every financial
// collection: transactions, recurring rules, goals, budgets and reserves,
// plus the salary, the dark-mode flag and the currency table. All derived
// views (analytics, projections, patterns) read from it; nothing is cached.
//
// Every mutator is a single atomic state transition: readers observe the
// state before or after a mutation, never a partial write. Observers are
// notified after the mutation completes, outside the lock.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Store owns the five entity collections. Cross-references between entities
// (RecurringID, GoalID) are weak, lookup-by-id only; deleting the referenced
// entity does not cascade.
type Store struct {
	mu sync.RWMutex

	salary   float64
	darkMode bool
	rates    core.Rates

	transactions []core.Transaction // newest first, display convenience only
	recurring    []core.RecurringRule
	goals        []core.Goal
	budgets      []core.Budget
	saved        []core.SavedMoney

	observers []func()
	now       func() time.Time
}

// New returns an empty store with the default currency table.
func New() *Store {
	return &Store{
		rates: core.DefaultRates(),
		now:   time.Now,
	}
}

// SetClock injects the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Subscribe registers fn to run after every completed mutation. Callbacks
// run synchronously on the mutating goroutine, after the lock is released.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	obs := append([]func(){}, s.observers...)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn()
	}
}

// ── Transactions ────────────────────────────────────────────────────────────

// AddTransaction assigns an id, clamps the amount, resolves currency and the
// locked exchange rate, and prepends the transaction. A zero date defaults
// to now, an empty category to the catch-all. Returns the stored value.
func (s *Store) AddTransaction(tx core.Transaction) core.Transaction {
	s.mu.Lock()
	tx.ID = uuid.NewString()
	tx.Amount = core.ClampAmount(tx.Amount)
	tx.Category = core.NormalizeCategory(tx.Category)
	tx.Type = core.NormalizeType(tx.Type)
	tx.Date = core.ClampDate(tx.Date, s.now())
	tx.Currency = core.ParseCurrency(string(tx.Currency))
	tx.ExchangeRate = s.lockRate(tx.Currency, tx.ExchangeRate)
	s.transactions = append([]core.Transaction{tx}, s.transactions...)
	s.mu.Unlock()
	s.notify()
	return tx
}

// lockRate resolves the exchange rate captured on a new transaction:
// 1 for BRL, otherwise the explicit override or the current table rate.
// Caller holds the lock.
func (s *Store) lockRate(c core.Currency, override float64) float64 {
	if c == core.BRL {
		return 1
	}
	if isUsableRate(override) {
		return override
	}
	return s.rates.Rate(c)
}

func isUsableRate(v float64) bool {
	return core.ClampAmount(v) > 0
}

// RemoveTransaction deletes by id. Unknown ids are a silent no-op.
func (s *Store) RemoveTransaction(id string) {
	s.mu.Lock()
	changed := false
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// TransactionPatch is a partial update; nil fields are left untouched.
// The locked exchange rate and currency are immutable after creation.
type TransactionPatch struct {
	Description *string
	Amount      *float64
	Category    *string
	Type        *core.TransactionType
	Date        *time.Time
	Tags        *[]string
}

// UpdateTransaction applies a partial update. Unknown ids are a no-op.
func (s *Store) UpdateTransaction(id string, patch TransactionPatch) {
	s.mu.Lock()
	changed := false
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		tx := &s.transactions[i]
		if patch.Description != nil {
			tx.Description = *patch.Description
		}
		if patch.Amount != nil {
			tx.Amount = core.ClampAmount(*patch.Amount)
		}
		if patch.Category != nil {
			tx.Category = core.NormalizeCategory(*patch.Category)
		}
		if patch.Type != nil {
			tx.Type = core.NormalizeType(*patch.Type)
		}
		if patch.Date != nil {
			tx.Date = core.ClampDate(*patch.Date, s.now())
		}
		if patch.Tags != nil {
			tx.Tags = append([]string(nil), (*patch.Tags)...)
		}
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Transactions returns a copy of the transaction log, newest first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// ── Recurring rules ─────────────────────────────────────────────────────────

// AddRecurring stores a new rule. Amount is clamped, an unknown frequency
// defaults to monthly, a zero start date to now.
func (s *Store) AddRecurring(r core.RecurringRule) core.RecurringRule {
	s.mu.Lock()
	r.ID = uuid.NewString()
	r.Amount = core.ClampAmount(r.Amount)
	r.Category = core.NormalizeCategory(r.Category)
	r.Type = core.NormalizeType(r.Type)
	if _, err := core.ParseFrequency(string(r.Frequency)); err != nil {
		r.Frequency = core.Monthly
	}
	r.StartDate = core.ClampDate(r.StartDate, s.now())
	r.Currency = core.ParseCurrency(string(r.Currency))
	r.LastExecuted = nil
	s.recurring = append(s.recurring, r)
	s.mu.Unlock()
	s.notify()
	return r
}

// RecurringPatch is a partial update for a rule. LastExecuted is not
// patchable here; only the scheduler moves it, through MarkExecuted.
type RecurringPatch struct {
	Description *string
	Amount      *float64
	Category    *string
	Type        *core.TransactionType
	Frequency   *core.Frequency
	StartDate   *time.Time
	EndDate     **time.Time
	Active      *bool
}

// UpdateRecurring applies a partial update. Unknown ids are a no-op.
func (s *Store) UpdateRecurring(id string, patch RecurringPatch) {
	s.mu.Lock()
	changed := false
	for i := range s.recurring {
		if s.recurring[i].ID != id {
			continue
		}
		r := &s.recurring[i]
		if patch.Description != nil {
			r.Description = *patch.Description
		}
		if patch.Amount != nil {
			r.Amount = core.ClampAmount(*patch.Amount)
		}
		if patch.Category != nil {
			r.Category = core.NormalizeCategory(*patch.Category)
		}
		if patch.Type != nil {
			r.Type = core.NormalizeType(*patch.Type)
		}
		if patch.Frequency != nil {
			if f, err := core.ParseFrequency(string(*patch.Frequency)); err == nil {
				r.Frequency = f
			}
		}
		if patch.StartDate != nil {
			r.StartDate = core.ClampDate(*patch.StartDate, s.now())
		}
		if patch.EndDate != nil {
			r.EndDate = *patch.EndDate
		}
		if patch.Active != nil {
			r.Active = *patch.Active
		}
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// RemoveRecurring deletes by id. Transactions generated by the rule keep
// their dangling RecurringID; lookups must tolerate it.
func (s *Store) RemoveRecurring(id string) {
	s.mu.Lock()
	changed := false
	for i, r := range s.recurring {
		if r.ID == id {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// MarkExecuted advances a rule's last-executed marker. The marker is
// monotonic: calls that would move it backwards are ignored.
func (s *Store) MarkExecuted(id string, t time.Time) {
	s.mu.Lock()
	changed := false
	for i := range s.recurring {
		r := &s.recurring[i]
		if r.ID != id {
			continue
		}
		if r.LastExecuted == nil || !t.Before(*r.LastExecuted) {
			ts := t
			r.LastExecuted = &ts
			changed = true
		}
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Recurring returns a copy of the rule collection.
func (s *Store) Recurring() []core.RecurringRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.RecurringRule(nil), s.recurring...)
}

// RecurringByID resolves a weak rule reference. The second return is false
// when the rule no longer exists.
func (s *Store) RecurringByID(id string) (core.RecurringRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recurring {
		if r.ID == id {
			return r, true
		}
	}
	return core.RecurringRule{}, false
}

// ── Goals ───────────────────────────────────────────────────────────────────

func (s *Store) AddGoal(g core.Goal) core.Goal {
	s.mu.Lock()
	g.ID = uuid.NewString()
	g.TargetAmount = core.ClampAmount(g.TargetAmount)
	g.CurrentAmount = 0
	s.goals = append(s.goals, g)
	s.mu.Unlock()
	s.notify()
	return g
}

// ContributeToGoal increments a goal's saved amount. Unknown ids no-op.
func (s *Store) ContributeToGoal(id string, amount float64) {
	amount = core.ClampAmount(amount)
	s.mu.Lock()
	changed := false
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].CurrentAmount += amount
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) RemoveGoal(id string) {
	s.mu.Lock()
	changed := false
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Goals() []core.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Goal(nil), s.goals...)
}

// GoalByID resolves a weak goal reference.
func (s *Store) GoalByID(id string) (core.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.Goal{}, false
}

// ── Budgets ─────────────────────────────────────────────────────────────────

// SetBudget stores a budget, replacing any existing budget for the same
// category. At most one budget exists per category.
func (s *Store) SetBudget(b core.Budget) {
	b.Category = core.NormalizeCategory(b.Category)
	b.Limit = core.ClampAmount(b.Limit)
	b.Period = core.NormalizePeriod(b.Period)
	s.mu.Lock()
	replaced := false
	for i := range s.budgets {
		if s.budgets[i].Category == b.Category {
			s.budgets[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		s.budgets = append(s.budgets, b)
		sort.Slice(s.budgets, func(i, j int) bool {
			return s.budgets[i].Category < s.budgets[j].Category
		})
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) RemoveBudget(category string) {
	s.mu.Lock()
	changed := false
	for i, b := range s.budgets {
		if b.Category == category {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Budget(nil), s.budgets...)
}

// ── Saved money ─────────────────────────────────────────────────────────────

func (s *Store) AddSavedMoney(m core.SavedMoney) core.SavedMoney {
	s.mu.Lock()
	m.ID = uuid.NewString()
	m.Amount = core.ClampAmount(m.Amount)
	m.Date = core.ClampDate(m.Date, s.now())
	s.saved = append(s.saved, m)
	s.mu.Unlock()
	s.notify()
	return m
}

func (s *Store) RemoveSavedMoney(id string) {
	s.mu.Lock()
	changed := false
	for i, m := range s.saved {
		if m.ID == id {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Store) SavedMoney() []core.SavedMoney {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.SavedMoney(nil), s.saved...)
}

// ── Settings ────────────────────────────────────────────────────────────────

func (s *Store) SetSalary(v float64) {
	s.mu.Lock()
	s.salary = core.ClampAmount(v)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Salary() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salary
}

func (s *Store) SetDarkMode(on bool) {
	s.mu.Lock()
	s.darkMode = on
	s.mu.Unlock()
	s.notify()
}

func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// SetRates replaces the currency table. BRL stays pinned at 1; existing
// transactions keep their locked rates.
func (s *Store) SetRates(r core.Rates) {
	s.mu.Lock()
	s.rates = r.Normalize()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Rates() core.Rates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates
}
