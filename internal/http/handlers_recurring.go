package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/services"
)

type recurringRequest struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Frequency   string   `json:"frequency"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Active      *bool    `json:"active"`
	Currency    string   `json:"currency"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rule := core.RecurringRule{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        core.TransactionType(req.Type),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   parseDate(req.StartDate),
		Currency:    core.Currency(req.Currency),
		Tags:        req.Tags,
		Active:      true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.EndDate != "" {
		end := parseDate(req.EndDate)
		if !end.IsZero() {
			rule.EndDate = &end
		}
	}

	created := s.store.AddRecurring(rule)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	rules := s.store.Recurring()
	type ruleView struct {
		core.RecurringRule
		State services.RuleState `json:"state"`
	}
	out := make([]ruleView, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleView{RecurringRule: rule, State: services.Classify(rule, now)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Description *string  `json:"description"`
		Amount      *float64 `json:"amount"`
		Category    *string  `json:"category"`
		Type        *string  `json:"type"`
		Frequency   *string  `json:"frequency"`
		StartDate   *string  `json:"startDate"`
		EndDate     *string  `json:"endDate"` // empty string clears the bound
		Active      *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := ledger.RecurringPatch{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Active:      req.Active,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Frequency != nil {
		f := core.Frequency(*req.Frequency)
		patch.Frequency = &f
	}
	if req.StartDate != nil {
		d := parseDate(*req.StartDate)
		patch.StartDate = &d
	}
	if req.EndDate != nil {
		var end *time.Time
		if *req.EndDate != "" {
			if d := parseDate(*req.EndDate); !d.IsZero() {
				end = &d
			}
		}
		patch.EndDate = &end
	}

	s.store.UpdateRecurring(id, patch)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveRecurring(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleRecurring(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, ok := s.store.RecurringByID(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
		return
	}
	active := !rule.Active
	s.store.UpdateRecurring(id, ledger.RecurringPatch{Active: &active})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}

// handleRecurringOccurrences returns projected occurrence dates without
// firing the rule.
func (s *Server) handleRecurringOccurrences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, ok := s.store.RecurringByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "recurring rule not found")
		return
	}

	count := 6
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 60 {
			count = n
		}
	}

	dates := services.Occurrences(rule, count)
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "occurrences": out})
}

// handleProcessRecurring triggers a scheduler pass on demand, on top of the
// periodic cadence.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	fired := s.scheduler.ProcessDue(r.Context(), time.Now())
	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}
