package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient builds a client against an httptest server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &Client{
		baseURL: srv.URL,
		user:    "test-user",
		token:   "test-token",
		client:  srv.Client(),
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no user", Config{BaseURL: "https://example.com", Token: "t"}},
		{"no token", Config{BaseURL: "https://example.com", User: "u"}},
		{"no url", Config{User: "u", Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("New() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestFetchTodos(t *testing.T) {
	var gotPath, gotQuery, gotUser, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("type")
		gotUser = r.Header.Get("x-api-user")
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[
			{"id":"m1","text":"Walk the dog","notes":"[OriginID:100]","type":"todo","completed":false},
			{"id":"m2","text":"Done thing","notes":"","type":"todo","completed":true},
			{"id":"","text":"no id","type":"todo"}
		]}`))
	})

	tasks, err := client.FetchTodos(context.Background())
	if err != nil {
		t.Fatalf("FetchTodos() error = %v", err)
	}

	if gotPath != "/tasks/user" {
		t.Errorf("path = %q, want %q", gotPath, "/tasks/user")
	}
	if gotQuery != "todos" {
		t.Errorf("type query = %q, want %q", gotQuery, "todos")
	}
	if gotUser != "test-user" || gotKey != "test-token" {
		t.Errorf("auth headers = %q/%q, want test-user/test-token", gotUser, gotKey)
	}

	if len(tasks) != 2 {
		t.Fatalf("FetchTodos() returned %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "m1" || tasks[0].Text != "Walk the dog" {
		t.Errorf("tasks[0] = %+v, want id m1", tasks[0])
	}
	if id, ok := tasks[0].OriginID(); !ok || id != "100" {
		t.Errorf("tasks[0].OriginID() = %q, %v, want %q, true", id, ok, "100")
	}
	if !tasks[1].Completed {
		t.Error("tasks[1].Completed = false, want true")
	}
}

func TestFetchTodos_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing authentication", http.StatusUnauthorized)
	})

	_, err := client.FetchTodos(context.Background())
	if err == nil {
		t.Fatal("FetchTodos() error = nil, want status error")
	}
}

func TestGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/m7" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/tasks/m7")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"id":"m7","text":"Read a chapter","notes":"notes\n\n[OriginID:55]","type":"todo","completed":true}}`))
	})

	got, err := client.Get(context.Background(), "m7")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.ID != "m7" {
		t.Errorf("Get().ID = %q, want %q", got.ID, "m7")
	}
	if !got.Completed {
		t.Error("Get().Completed = false, want true")
	}
	if id, ok := got.OriginID(); !ok || id != "55" {
		t.Errorf("Get().OriginID() = %q, %v, want %q, true", id, ok, "55")
	}
}

func TestGet_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false}`, http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), "gone")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get() error = %v, want ErrTaskNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotPayload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":"new-1","text":"Buy milk","notes":"d\n\n[OriginID:42]","type":"todo","completed":false}}`))
	})

	created, err := client.Create(context.Background(), "Buy milk", "d\n\n[OriginID:42]")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/tasks/user" {
		t.Errorf("request = %s %s, want POST /tasks/user", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotPayload["text"] != "Buy milk" {
		t.Errorf("payload text = %v, want %q", gotPayload["text"], "Buy milk")
	}
	if gotPayload["type"] != "todo" {
		t.Errorf("payload type = %v, want %q", gotPayload["type"], "todo")
	}
	if gotPayload["notes"] != "d\n\n[OriginID:42]" {
		t.Errorf("payload notes = %v, want tagged notes", gotPayload["notes"])
	}
	if gotPayload["priority"] != float64(1) {
		t.Errorf("payload priority = %v, want 1", gotPayload["priority"])
	}

	if created.ID != "new-1" {
		t.Errorf("Create().ID = %q, want %q", created.ID, "new-1")
	}
}

func TestCreate_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "text is required", http.StatusBadRequest)
	})

	_, err := client.Create(context.Background(), "", "")
	if err == nil {
		t.Fatal("Create() error = nil, want status error")
	}
}

func TestScoreAndUnlinkPaths(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *Client) error
		wantPath string
	}{
		{"complete", func(c *Client) error { return c.Complete(context.Background(), "m3") }, "/tasks/m3/score/up"},
		{"uncomplete", func(c *Client) error { return c.Uncomplete(context.Background(), "m3") }, "/tasks/m3/score/down"},
		{"unlink", func(c *Client) error { return c.Unlink(context.Background(), "m3") }, "/tasks/m3/unlink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.Write([]byte(`{"success":true,"data":{}}`))
			})

			if err := tt.call(client); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if gotMethod != http.MethodPost {
				t.Errorf("method = %q, want POST", gotMethod)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
		})
	}
}

func TestComplete_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "task not scorable", http.StatusInternalServerError)
	})

	if err := client.Complete(context.Background(), "m3"); err == nil {
		t.Fatal("Complete() error = nil, want status error")
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"data":{}}`))
	})

	if err := client.Delete(context.Background(), "m5"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/tasks/m5" {
		t.Errorf("request = %s %s, want DELETE /tasks/m5", gotMethod, gotPath)
	}
}

func TestDelete_NotFoundIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"NotFound"}`, http.StatusNotFound)
	})

	if err := client.Delete(context.Background(), "already-gone"); err != nil {
		t.Errorf("Delete() error = %v, want nil for missing task", err)
	}
}

func TestDelete_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server exploded", http.StatusInternalServerError)
	})

	if err := client.Delete(context.Background(), "m5"); err == nil {
		t.Fatal("Delete() error = nil, want status error")
	}
}
