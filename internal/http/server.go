// Package http exposes the application over a JSON API: entity CRUD,
// analytics reads, export/import, and the two cloud sync endpoints.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"financas/internal/ledger"
	"financas/internal/metrics"
	"financas/internal/services"
	"financas/internal/storage"
)

// Server wires the router to the ledger store, the read-side engines and
// the snapshot store that backs the sync endpoints.
type Server struct {
	store       *ledger.Store
	analytics   *services.Analytics
	scheduler   *services.Scheduler
	categorizer *services.Categorizer
	snapshots   storage.SnapshotStore

	// syncTokens maps bearer tokens to user identities for the cloud
	// sync endpoints. Empty map means every sync request is rejected.
	syncTokens     map[string]string
	maxSyncPayload int64

	limiter *limiter
}

// Options carries the server's collaborators.
type Options struct {
	Store          *ledger.Store
	Analytics      *services.Analytics
	Scheduler      *services.Scheduler
	Categorizer    *services.Categorizer
	Snapshots      storage.SnapshotStore
	SyncTokens     map[string]string
	MaxSyncPayload int64
}

func NewServer(opts Options) *Server {
	if opts.MaxSyncPayload <= 0 {
		opts.MaxSyncPayload = 5 << 20
	}
	if opts.Categorizer == nil {
		opts.Categorizer = services.NewCategorizer()
	}
	return &Server{
		store:          opts.Store,
		analytics:      opts.Analytics,
		scheduler:      opts.Scheduler,
		categorizer:    opts.Categorizer,
		snapshots:      opts.Snapshots,
		syncTokens:     opts.SyncTokens,
		maxSyncPayload: opts.MaxSyncPayload,
		limiter:        newLimiter(120),
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Patch("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Patch("/{id}", s.handleUpdateRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
			r.Post("/{id}/toggle", s.handleToggleRecurring)
			r.Get("/{id}/occurrences", s.handleRecurringOccurrences)
			r.Post("/process", s.handleProcessRecurring)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
			r.Post("/{id}/contribute", s.handleContributeGoal)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Put("/", s.handleSetBudget)
			r.Delete("/{category}", s.handleDeleteBudget)
		})

		r.Route("/saved", func(r chi.Router) {
			r.Get("/", s.handleListSaved)
			r.Post("/", s.handleCreateSaved)
			r.Delete("/{id}", s.handleDeleteSaved)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/salary", s.handleSetSalary)
			r.Put("/darkmode", s.handleSetDarkMode)
			r.Put("/rates", s.handleSetRates)
			r.Post("/rates/refresh", s.handleRefreshRates)
		})

		r.Get("/summary", s.handleSummary)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/monthly", s.handleMonthlyData)
			r.Get("/categories", s.handleCategoryTotals)
			r.Get("/budgets", s.handleBudgetStatuses)
			r.Get("/patterns", s.handlePatterns)
			r.Get("/projections", s.handleProjections)
		})

		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/json", s.handleExportJSON)
		r.Post("/import", s.handleImport)

		r.Route("/sync", func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/load", s.handleSyncLoad)
			r.Post("/save", s.handleSyncSave)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
