package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
)

// ── Goals ───────────────────────────────────────────────────────────────────

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string  `json:"name"`
		TargetAmount float64 `json:"targetAmount"`
		Deadline     string  `json:"deadline"`
		Category     string  `json:"category"`
		Color        string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	goal := s.store.AddGoal(core.Goal{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Deadline:     parseDate(req.Deadline),
		Category:     req.Category,
		Color:        req.Color,
	})
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Goals())
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveGoal(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.ContributeToGoal(id, req.Amount)
	if goal, ok := s.store.GoalByID(id); ok {
		writeJSON(w, http.StatusOK, goal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// ── Budgets ─────────────────────────────────────────────────────────────────

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
		Period   string  `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetBudget(core.Budget{
		Category: req.Category,
		Limit:    req.Limit,
		Period:   core.BudgetPeriod(req.Period),
	})
	writeJSON(w, http.StatusOK, map[string]string{"category": core.NormalizeCategory(req.Category)})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Budgets())
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveBudget(chi.URLParam(r, "category"))
	w.WriteHeader(http.StatusNoContent)
}

// ── Saved money ─────────────────────────────────────────────────────────────

func (s *Server) handleCreateSaved(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
		Goal        string  `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry := s.store.AddSavedMoney(core.SavedMoney{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        parseDate(req.Date),
		GoalID:      req.Goal,
	})
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	// Resolve the weak goal reference for display; a deleted goal is a
	// normal case and yields an empty name.
	type savedView struct {
		core.SavedMoney
		GoalName string `json:"goalName,omitempty"`
	}
	entries := s.store.SavedMoney()
	out := make([]savedView, 0, len(entries))
	for _, m := range entries {
		view := savedView{SavedMoney: m}
		if m.GoalID != "" {
			if goal, ok := s.store.GoalByID(m.GoalID); ok {
				view.GoalName = goal.Name
			}
		}
		out = append(out, view)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveSavedMoney(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
