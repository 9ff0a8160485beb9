// Package origin implements the client for the origin task API, the system
// treated as the authoritative source of work items due today.
package origin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"questsync/internal/task"
)

// APITimeout bounds every remote call so a stalled request cannot block a
// reconciliation cycle.
const APITimeout = 30 * time.Second

// Client talks to the origin task API.
type Client struct {
	baseURL string
	client  *http.Client
	loc     *time.Location
	now     func() time.Time
}

// Config holds settings for the origin client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.todoist.com/rest/v2".
	BaseURL string

	// Token is the bearer token used for every request.
	Token string

	// Location decides which calendar date counts as "today".
	Location *time.Location
}

// New creates an origin client. The bearer token is injected by an oauth2
// static token source so the request code never handles auth headers.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: origin token not set", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: origin URL not set", ErrMissingCredentials)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = APITimeout

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		loc:     loc,
		now:     time.Now,
	}, nil
}

// Today returns the current calendar date (YYYY-MM-DD) in the client's
// reference timezone.
func (c *Client) Today() string {
	return c.now().In(c.loc).Format("2006-01-02")
}

// FetchDueToday returns active tasks whose due date equals today in the
// reference timezone. The remote due filter is advisory; an exact
// calendar-date equality check is applied here as well so overdue backlog
// never enters the mirrored set.
func (c *Client) FetchDueToday(ctx context.Context) ([]task.OriginTask, error) {
	today := c.Today()
	url := fmt.Sprintf("%s/tasks?due=%s", c.baseURL, today)

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("origin API returned status %d: %s", resp.StatusCode, string(body))
	}

	var wire []wireTask
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse origin response: %w", err)
	}

	tasks := make([]task.OriginTask, 0, len(wire))
	for _, w := range wire {
		t := w.normalize()
		if t.ID == "" {
			// Malformed entry, skip it rather than fail the fetch.
			continue
		}
		if t.Completed {
			continue
		}
		if !t.DueOn(today) {
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// Close requests completion of the given origin task. Any 2xx status counts
// as success; everything else is an error value, never a panic.
func (c *Client) Close(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/tasks/%s/close", c.baseURL, id)

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("origin API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// wireTask covers the heterogeneous task shapes the origin API serves:
// due dates arrive either as a flat "due_date" string or as a nested
// "due" object, and IDs as either strings or numbers.
type wireTask struct {
	ID          flexString `json:"id"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	DueDate     string     `json:"due_date"`
	Due         *wireDue   `json:"due"`
	IsCompleted bool       `json:"is_completed"`
}

type wireDue struct {
	Date string `json:"date"`
}

// normalize flattens a wire task into the canonical record.
func (w wireTask) normalize() task.OriginTask {
	due := w.DueDate
	if due == "" && w.Due != nil {
		due = w.Due.Date
	}
	// Some responses carry a full timestamp; keep the calendar date.
	if len(due) > 10 {
		due = due[:10]
	}

	return task.OriginTask{
		ID:          string(w.ID),
		Content:     w.Content,
		Description: w.Description,
		DueDate:     due,
		Completed:   w.IsCompleted,
	}
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}
