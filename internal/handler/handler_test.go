package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	storepulse "github.com/karimfahmy/storepulse"
	"github.com/karimfahmy/storepulse/internal/blob"
	"github.com/karimfahmy/storepulse/internal/config"
	"github.com/karimfahmy/storepulse/internal/db"
	"github.com/karimfahmy/storepulse/internal/demo"
	"github.com/karimfahmy/storepulse/internal/diskstat"
	"github.com/karimfahmy/storepulse/internal/report"
)

type testEnv struct {
	h      *Handler
	router chi.Router
	db     *sql.DB
	blob   *blob.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	database, err := db.Open(dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database, storepulse.MigrationFS); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := blob.New(dir, "http://localhost:8080", "test-secret")
	if err := store.Init(blob.BucketMedia, blob.BucketReports); err != nil {
		t.Fatalf("init blob store: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		ListenAddr:     ":0",
		DataDir:        dir,
		BaseURL:        "http://localhost:8080",
		SignSecret:     "test-secret",
		MaxUploadBytes: 16 << 20,
	}
	gen := &report.Generator{
		DB:     database,
		Blob:   store,
		Client: &http.Client{Timeout: 5 * time.Second},
		Log:    log,
	}
	fixture := demo.NewFixture(time.Now().UTC())
	disk := diskstat.New(dir, time.Minute)

	rl := NewRateLimiter(1000, 1000)
	t.Cleanup(rl.Stop)

	h := New(database, cfg, store, gen, fixture, disk, log)
	return &testEnv{
		h:      h,
		router: h.Routes(rl),
		db:     database,
		blob:   store,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
