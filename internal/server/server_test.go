package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"questsync/internal/engine"
	"questsync/internal/store"
	"questsync/internal/task"
)

type stubOrigin struct{ fetchErr error }

func (s stubOrigin) FetchDueToday(ctx context.Context) ([]task.OriginTask, error) {
	return nil, s.fetchErr
}

func (s stubOrigin) Close(ctx context.Context, id string) error { return nil }

type stubMirror struct{ fetchErr error }

func (s stubMirror) FetchTodos(ctx context.Context) ([]task.MirrorTask, error) {
	return nil, s.fetchErr
}

func (s stubMirror) Create(ctx context.Context, text, notes string) (*task.MirrorTask, error) {
	return &task.MirrorTask{ID: "m-1", Text: text, Notes: notes, Type: task.TypeTodo}, nil
}

func (s stubMirror) Complete(ctx context.Context, id string) error { return nil }

func (s stubMirror) Delete(ctx context.Context, id string) error { return nil }

func newTestHandler(t *testing.T, origin engine.OriginService, mirror engine.MirrorService) http.Handler {
	t.Helper()

	st := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	e := engine.New(engine.Config{Origin: origin, Mirror: mirror, Store: st})
	return New(Config{Runner: engine.NewRunner(e), Version: "test"})
}

func TestBanner(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "questsync test") || !strings.Contains(body, "/sync") {
		t.Errorf("banner = %q, want version line and route listing", body)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf(`body["status"] = %q, want "ok"`, body["status"])
	}
}

func TestSync(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /sync status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var outcome engine.Outcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.CycleID == "" {
		t.Error("outcome.CycleID is empty")
	}
	if !outcome.Success {
		t.Error("outcome.Success = false, want true")
	}
}

func TestSync_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /sync status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSync_BothSidesDown(t *testing.T) {
	h := newTestHandler(t,
		stubOrigin{fetchErr: errors.New("origin down")},
		stubMirror{fetchErr: errors.New("mirror down")},
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("POST /sync status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body.Error, "both snapshots failed") {
		t.Errorf("error = %q, want snapshot failure", body.Error)
	}
}

func TestStatus_NeverRun(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /status status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestStatus_AfterSync(t *testing.T) {
	h := newTestHandler(t, stubOrigin{}, stubMirror{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /sync status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Busy {
		t.Error("busy = true, want false")
	}
	if body.Last == nil || body.Last.CycleID == "" {
		t.Errorf("last_cycle = %+v, want the completed cycle", body.Last)
	}
}
