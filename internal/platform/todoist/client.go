// Package todoist implements the tracker.Tracker interface against the
// Todoist REST v2 API.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"startask/internal/platform/logger"
	"startask/internal/tracker"
)

// DefaultBaseURL is the production Todoist REST v2 endpoint.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

const defaultTimeout = 30 * time.Second

// Client is a minimal Todoist REST v2 client covering the one operation the
// pipeline needs: creating tasks.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// Ensure Client implements the tracker.Tracker interface
var _ tracker.Tracker = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client; tests use it to point
// at an httptest server.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// NewClient creates a Todoist client with the given API token.
func NewClient(token string, log *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: API token cannot be empty", tracker.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		token:      token,
		logger:     log.With(slog.String("component", "todoist_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// createTaskRequest is the REST v2 task-creation payload.
type createTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
}

// taskResponse is the subset of the REST v2 task resource the pipeline uses.
type taskResponse struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	URL         string   `json:"url"`
}

// CreateTask implements tracker.Tracker. Every request carries a fresh
// X-Request-Id so Todoist can deduplicate retried creations.
func (c *Client) CreateTask(ctx context.Context, task tracker.NewTask) (*tracker.Task, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if task.Content == "" {
		return nil, fmt.Errorf("%w: task content cannot be empty", tracker.ErrRequestFailed)
	}

	body, err := json.Marshal(createTaskRequest{
		Content:     task.Content,
		Description: task.Description,
		Labels:      task.Labels,
		DueString:   task.DueString,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", tracker.ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", tracker.ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", tracker.ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// The error body is plain text or JSON depending on the failure;
		// keep a short excerpt for diagnostics either way.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn("task creation rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(excerpt)))
		return nil, fmt.Errorf("%w: status %d: %s", tracker.ErrRequestFailed, resp.StatusCode, string(excerpt))
	}

	var created taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", tracker.ErrRequestFailed, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: response carries no task id", tracker.ErrRequestFailed)
	}

	log.Info("todoist task created", slog.String("task_id", created.ID))

	return &tracker.Task{
		ID:          created.ID,
		Content:     created.Content,
		Description: created.Description,
		Labels:      created.Labels,
		URL:         created.URL,
	}, nil
}
