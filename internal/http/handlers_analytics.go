package http

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"

	"financas/internal/core"
	"financas/internal/services"
)

// ── Settings ────────────────────────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"salary":     s.store.Salary(),
		"darkMode":   s.store.DarkMode(),
		"currencies": s.store.Rates(),
		"categories": core.Categories,
	})
}

func (s *Server) handleSetSalary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Salary float64 `json:"salary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetSalary(req.Salary)
	writeJSON(w, http.StatusOK, map[string]float64{"salary": s.store.Salary()})
}

func (s *Server) handleSetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DarkMode bool `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetDarkMode(req.DarkMode)
	writeJSON(w, http.StatusOK, map[string]bool{"darkMode": s.store.DarkMode()})
}

func (s *Server) handleSetRates(w http.ResponseWriter, r *http.Request) {
	var rates core.Rates
	if err := json.NewDecoder(r.Body).Decode(&rates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetRates(rates)
	writeJSON(w, http.StatusOK, s.store.Rates())
}

// handleRefreshRates simulates a market feed: it nudges the non-reference
// rates by up to ±2% around their current values. A real provider would
// slot in here behind the same endpoint.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	jitter := func(v float64) float64 {
		return v * (1 + (rand.Float64()-0.5)*0.04)
	}
	rates := s.store.Rates()
	rates.USD = jitter(rates.USD)
	rates.EUR = jitter(rates.EUR)
	s.store.SetRates(rates)
	writeJSON(w, http.StatusOK, s.store.Rates())
}

// ── Aggregates ──────────────────────────────────────────────────────────────

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.Summary())
}

func (s *Server) handleMonthlyData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.MonthlyData())
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.CategoryTotals())
}

func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.BudgetStatuses())
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.WeekdayPatterns())
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	months := 6
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 24 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 24")
			return
		}
		months = n
	}
	scenario := services.ParseScenario(r.URL.Query().Get("scenario"))
	writeJSON(w, http.StatusOK, s.analytics.Project(months, scenario))
}
