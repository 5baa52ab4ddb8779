package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/metrics"
)

// parseDate accepts RFC 3339 or plain dates. Anything else yields the zero
// time, which the store clamps to now.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

type transactionRequest struct {
	Description  string      `json:"description"`
	Amount       float64     `json:"amount"`
	Category     string      `json:"category"`
	Type         string      `json:"type"`
	Date         string      `json:"date"`
	Currency     string      `json:"currency"`
	ExchangeRate float64     `json:"exchangeRate"`
	Tags         []string    `json:"tags"`
	Split        *core.Split `json:"split"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	category := req.Category
	if category == "" {
		// Auto-categorize from the description; falls back to the
		// catch-all category when no keyword matches.
		category = s.categorizer.Categorize(req.Description)
	}

	tx := s.store.AddTransaction(core.Transaction{
		Description:  req.Description,
		Amount:       req.Amount,
		Category:     category,
		Type:         core.TransactionType(req.Type),
		Date:         parseDate(req.Date),
		Currency:     core.Currency(req.Currency),
		ExchangeRate: req.ExchangeRate,
		Tags:         req.Tags,
		Split:        req.Split,
	})
	metrics.TransactionsCreated.Inc()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.store.Transactions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit >= 0 && limit < len(txs) {
			txs = txs[:limit]
		}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Description *string   `json:"description"`
		Amount      *float64  `json:"amount"`
		Category    *string   `json:"category"`
		Type        *string   `json:"type"`
		Date        *string   `json:"date"`
		Tags        *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := ledger.TransactionPatch{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Date != nil {
		d := parseDate(*req.Date)
		patch.Date = &d
	}

	// Unknown ids are a silent no-op; the response is the same either way.
	s.store.UpdateTransaction(id, patch)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveTransaction(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
