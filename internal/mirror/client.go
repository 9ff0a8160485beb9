// Package mirror implements the client for the mirror task API, the
// gamified system that reflects origin tasks and rewards their completion.
//
// All responses arrive wrapped in a {"data": ...} envelope. Mutating
// operations are idempotent from the caller's perspective: deleting an
// already-missing task is a success, not an error.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"questsync/internal/task"
)

// APITimeout bounds every remote call so a stalled request cannot block a
// reconciliation cycle.
const APITimeout = 30 * time.Second

// defaultPriority is assigned to every mirrored todo on creation.
const defaultPriority = 1

// Client talks to the mirror task API.
type Client struct {
	baseURL string
	user    string
	token   string
	client  *http.Client
}

// Config holds settings for the mirror client.
type Config struct {
	// BaseURL is the API root, e.g. "https://habitica.com/api/v3".
	BaseURL string

	// User is sent as the x-api-user header.
	User string

	// Token is sent as the x-api-key header.
	Token string
}

// New creates a mirror client.
func New(cfg Config) (*Client, error) {
	if cfg.User == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: mirror user or token not set", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: mirror URL not set", ErrMissingCredentials)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		user:    cfg.User,
		token:   cfg.Token,
		client:  &http.Client{Timeout: APITimeout},
	}, nil
}

// FetchTodos returns the user's todo list, both open and recently completed
// items. The recently-completed window is what lets a cycle observe
// mirror-side completions before they age out.
func (c *Client) FetchTodos(ctx context.Context) ([]task.MirrorTask, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/tasks/user?type=todos", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mirror API returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data []wireTask `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse mirror response: %w", err)
	}

	tasks := make([]task.MirrorTask, 0, len(envelope.Data))
	for _, w := range envelope.Data {
		if w.ID == "" {
			continue
		}
		tasks = append(tasks, w.normalize())
	}

	return tasks, nil
}

// Get fetches a single task by ID.
func (c *Client) Get(ctx context.Context, id string) (*task.MirrorTask, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/tasks/"+id, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mirror API returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data wireTask `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse mirror response: %w", err)
	}

	t := envelope.Data.normalize()
	return &t, nil
}

// Create adds a new todo with the given display text and free-text notes.
// The notes carry the origin tag, so they must be passed through verbatim.
func (c *Client) Create(ctx context.Context, text, notes string) (*task.MirrorTask, error) {
	payload := struct {
		Text     string `json:"text"`
		Type     string `json:"type"`
		Notes    string `json:"notes"`
		Priority int    `json:"priority"`
	}{
		Text:     text,
		Type:     task.TypeTodo,
		Notes:    notes,
		Priority: defaultPriority,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/tasks/user", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mirror API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data wireTask `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse mirror response: %w", err)
	}

	t := envelope.Data.normalize()
	return &t, nil
}

// Complete scores the task up, marking it done.
func (c *Client) Complete(ctx context.Context, id string) error {
	return c.post(ctx, "/tasks/"+id+"/score/up")
}

// Uncomplete scores the task down, reopening it.
func (c *Client) Uncomplete(ctx context.Context, id string) error {
	return c.post(ctx, "/tasks/"+id+"/score/down")
}

// Unlink detaches a challenge-linked task so it can be managed directly.
func (c *Client) Unlink(ctx context.Context, id string) error {
	return c.post(ctx, "/tasks/"+id+"/unlink")
}

// Delete removes the task. A 404 is success: the task is already gone,
// which is the state the caller wanted.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, "/tasks/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// post issues a bodyless POST and expects a 2xx response.
func (c *Client) post(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-user", c.user)
	req.Header.Set("x-api-key", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// wireTask is a task as served by the mirror API.
type wireTask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Notes     string `json:"notes"`
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

func (w wireTask) normalize() task.MirrorTask {
	return task.MirrorTask{
		ID:        w.ID,
		Text:      w.Text,
		Notes:     w.Notes,
		Type:      w.Type,
		Completed: w.Completed,
	}
}
