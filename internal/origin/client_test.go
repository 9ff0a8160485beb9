package origin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testDay is the fixed "today" used by test clients (UTC).
var testDay = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// newTestClient builds a client against an httptest server with a fixed clock.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &Client{
		baseURL: srv.URL,
		client:  srv.Client(),
		loc:     time.UTC,
		now:     func() time.Time { return testDay },
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(Config{BaseURL: "https://origin.example.com"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New() error = %v, want ErrMissingCredentials", err)
	}

	_, err = New(Config{Token: "tok"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New() error = %v, want ErrMissingCredentials", err)
	}
}

func TestFetchDueToday_Normalization(t *testing.T) {
	body := `[
		{"id": "1", "content": "flat due date", "description": "d1", "due_date": "2026-03-14", "is_completed": false},
		{"id": 2, "content": "numeric id, nested due", "due": {"date": "2026-03-14"}, "is_completed": false},
		{"id": "3", "content": "datetime due", "due": {"date": "2026-03-14T09:00:00"}, "is_completed": false},
		{"id": "4", "content": "already completed", "due_date": "2026-03-14", "is_completed": true},
		{"id": "5", "content": "overdue", "due_date": "2026-03-13", "is_completed": false},
		{"id": "6", "content": "future", "due": {"date": "2026-03-15"}, "is_completed": false},
		{"id": "7", "content": "no due date", "is_completed": false},
		{"content": "missing id", "due_date": "2026-03-14", "is_completed": false}
	]`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("path = %q, want /tasks", r.URL.Path)
		}
		if got := r.URL.Query().Get("due"); got != "2026-03-14" {
			t.Errorf("due query = %q, want 2026-03-14", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	tasks, err := client.FetchDueToday(context.Background())
	if err != nil {
		t.Fatalf("FetchDueToday failed: %v", err)
	}

	wantIDs := []string{"1", "2", "3"}
	if len(tasks) != len(wantIDs) {
		t.Fatalf("got %d tasks, want %d: %+v", len(tasks), len(wantIDs), tasks)
	}
	for i, want := range wantIDs {
		if tasks[i].ID != want {
			t.Errorf("tasks[%d].ID = %q, want %q", i, tasks[i].ID, want)
		}
		if tasks[i].DueDate != "2026-03-14" {
			t.Errorf("tasks[%d].DueDate = %q, want 2026-03-14", i, tasks[i].DueDate)
		}
	}
	if tasks[0].Description != "d1" {
		t.Errorf("tasks[0].Description = %q, want %q", tasks[0].Description, "d1")
	}
}

func TestFetchDueToday_BearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Token: "secret-token"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := client.FetchDueToday(context.Background()); err != nil {
		t.Fatalf("FetchDueToday failed: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret-token")
	}
}

func TestFetchDueToday_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server on fire", http.StatusInternalServerError)
	})

	_, err := client.FetchDueToday(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchDueToday_BadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	})

	_, err := client.FetchDueToday(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestClose(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.Close(context.Background(), "task-9"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/tasks/task-9/close" {
		t.Errorf("path = %q, want /tasks/task-9/close", gotPath)
	}
}

func TestClose_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such task", http.StatusBadRequest)
	})

	if err := client.Close(context.Background(), "gone"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestToday_ReferenceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	// 03:00 UTC on March 15 is still March 14 in New York.
	client := &Client{
		loc: loc,
		now: func() time.Time { return time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC) },
	}

	if got := client.Today(); got != "2026-03-14" {
		t.Errorf("Today() = %q, want 2026-03-14", got)
	}
}
