package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/services"
	"financas/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *ledger.Store) {
	t.Helper()
	store := ledger.New()
	store.SetClock(func() time.Time { return testNow })
	analytics := services.NewAnalytics(store)
	analytics.SetClock(func() time.Time { return testNow })

	srv := NewServer(Options{
		Store:     store,
		Analytics: analytics,
		Scheduler: services.NewScheduler(store),
		Snapshots: storage.NewMemoryStore(),
		SyncTokens: map[string]string{
			"secret-token": "user-1",
		},
		MaxSyncPayload: 4096,
	})
	return srv, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_CreateTransaction(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/transactions", map[string]any{
		"description": "Mercado Extra",
		"amount":      120.5,
		"type":        "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var tx core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatal(err)
	}
	if tx.ID == "" {
		t.Error("expected generated id")
	}
	// The keyword categorizer fills the missing category.
	if tx.Category != "Alimentação" {
		t.Errorf("category = %q, want auto-categorized Alimentação", tx.Category)
	}
	if len(store.Transactions()) != 1 {
		t.Error("transaction not stored")
	}
}

func TestServer_CreateTransaction_BadJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_DeleteTransaction_UnknownIDIsNoContent(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/transactions/nope", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 (unknown id deletes are silent)", rec.Code)
	}
}

func TestServer_Summary(t *testing.T) {
	srv, store := newTestServer(t)
	store.SetSalary(5000)
	store.AddTransaction(core.Transaction{Description: "Conta", Amount: 1000, Type: core.Expense})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got services.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.TotalBalance != 4000 || got.AvailableBalance != 4000 {
		t.Errorf("summary = %+v", got)
	}
}

func TestServer_RecurringLifecycle(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/recurring", map[string]any{
		"description": "Aluguel",
		"amount":      1500,
		"category":    "Moradia",
		"type":        "expense",
		"frequency":   "monthly",
		"startDate":   testNow.AddDate(0, 0, -40).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	var rule core.RecurringRule
	if err := json.Unmarshal(rec.Body.Bytes(), &rule); err != nil {
		t.Fatal(err)
	}

	// Toggle off and back on.
	rec = doJSON(t, h, http.MethodPost, "/api/recurring/"+rule.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	got, _ := store.RecurringByID(rule.ID)
	if got.Active {
		t.Error("toggle should deactivate the rule")
	}
	doJSON(t, h, http.MethodPost, "/api/recurring/"+rule.ID+"/toggle", nil)

	// Occurrences projection endpoint.
	rec = doJSON(t, h, http.MethodGet, "/api/recurring/"+rule.ID+"/occurrences?count=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("occurrences status = %d", rec.Code)
	}

	// On-demand processing fires the overdue rule.
	rec = doJSON(t, h, http.MethodPost, "/api/recurring/process", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("process status = %d", rec.Code)
	}
	if len(store.Transactions()) != 1 {
		t.Errorf("transactions = %d, want 1 fired", len(store.Transactions()))
	}
}

func TestServer_SyncRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/sync/load", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sync/load", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", rec2.Code)
	}
}

func TestServer_SyncSaveAndLoad(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	save := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/sync/save", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer secret-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := save(`{"state": {"salary": 4200, "darkMode": true}}`); rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body)
	}

	// State must be a JSON object, not a scalar or array.
	if rec := save(`{"state": 42}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("scalar state status = %d, want 422", rec.Code)
	}
	if rec := save(`{"state": [1,2]}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("array state status = %d, want 422", rec.Code)
	}

	// Load returns the stored snapshot wrapped in a data envelope.
	req := httptest.NewRequest(http.MethodPost, "/api/sync/load", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}
	var envelope struct {
		Data *struct {
			State ledger.Snapshot `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data == nil {
		t.Fatal("data = null, want the saved snapshot")
	}
	if envelope.Data.State.Salary != 4200 || !envelope.Data.State.DarkMode {
		t.Errorf("state = %+v", envelope.Data.State)
	}
}

func TestServer_SyncLoad_NoSnapshotIsNullData(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/sync/load", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if string(envelope.Data) != "null" {
		t.Errorf("data = %s, want null", envelope.Data)
	}
}

func TestServer_SyncSave_PayloadTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)

	big := fmt.Sprintf(`{"state": {"salary": 1, "pad": %q}}`, strings.Repeat("x", 8192))
	req := httptest.NewRequest(http.MethodPost, "/api/sync/save", strings.NewReader(big))
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestServer_ExportCSV(t *testing.T) {
	srv, store := newTestServer(t)
	store.AddTransaction(core.Transaction{Description: "Mercado", Amount: 50, Type: core.Expense})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/export/csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Mercado") {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestServer_ImportReplacesState(t *testing.T) {
	srv, store := newTestServer(t)
	store.AddTransaction(core.Transaction{Description: "old", Amount: 1})

	body := `{"salary": 9000, "transactions": [], "darkMode": false}`
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if store.Salary() != 9000 {
		t.Errorf("salary = %v, want imported 9000", store.Salary())
	}
	if len(store.Transactions()) != 0 {
		t.Error("import must replace, not merge")
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServer_SettingsRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	if rec := doJSON(t, h, http.MethodPut, "/api/settings/salary", map[string]float64{"salary": 6500}); rec.Code != http.StatusOK {
		t.Fatalf("salary status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPut, "/api/settings/rates", core.Rates{USD: 5.4, EUR: 5.9}); rec.Code != http.StatusOK {
		t.Fatalf("rates status = %d", rec.Code)
	}

	if store.Salary() != 6500 {
		t.Errorf("salary = %v", store.Salary())
	}
	if got := store.Rates(); got.USD != 5.4 || got.BRL != 1 {
		t.Errorf("rates = %+v, want USD 5.4 with BRL pinned", got)
	}
}
