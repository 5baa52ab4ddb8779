package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"financas/internal/export"
	"financas/internal/ledger"
	"financas/internal/metrics"
)

// ── Export / import ─────────────────────────────────────────────────────────

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=transactions-%s.csv", time.Now().Format("2006-01-02")))
	if err := export.WriteTransactionsCSV(w, s.store.Transactions()); err != nil {
		slog.Error("CSV export failed", "error", err)
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=financas-%s.json", time.Now().Format("2006-01-02")))
	if err := export.WriteSnapshotJSON(w, s.store.Snapshot()); err != nil {
		slog.Error("JSON export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxSyncPayload))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	snap, err := ledger.DecodePersisted(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unrecognized snapshot format")
		return
	}
	s.store.Replace(snap)
	writeJSON(w, http.StatusOK, map[string]int{"transactions": len(snap.Transactions)})
}

// ── Cloud sync endpoints ────────────────────────────────────────────────────

// syncIdentity resolves the bearer token to a user identity. An empty
// token table means the sync surface is disabled entirely.
func (s *Server) syncIdentity(r *http.Request) (string, bool) {
	if len(s.syncTokens) == 0 {
		return "", false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	userID, ok := s.syncTokens[token]
	return userID, ok
}

func (s *Server) handleSyncLoad(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.syncIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	snap, found, err := s.snapshots.Load(r.Context(), userID)
	if err != nil {
		slog.Error("Sync load failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"state": snap},
	})
}

func (s *Server) handleSyncSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.syncIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxSyncPayload))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	var req struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	trimmed := strings.TrimLeft(string(req.State), " \t\r\n")
	if !strings.HasPrefix(trimmed, "{") {
		writeError(w, http.StatusUnprocessableEntity, "state must be a JSON object")
		return
	}
	snap, err := ledger.DecodePersisted(req.State)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "state must be a valid snapshot")
		return
	}
	if err := s.snapshots.Save(r.Context(), userID, snap); err != nil {
		metrics.CloudSyncFailures.Inc()
		slog.Error("Sync save failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	metrics.CloudSyncSaves.Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}
