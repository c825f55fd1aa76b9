// Package apiclient talks to the tally HTTP API on behalf of the terminal client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evanschultz/tally/internal/domain"
	"github.com/sony/gobreaker"
)

// fallbackMessage is reported when an error response carries no usable message.
const fallbackMessage = "Request failed"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes int64 = 4 << 20

// ErrUnavailable reports that the breaker is open and the request was not sent.
var ErrUnavailable = errors.New("server unavailable")

// Config configures one Client.
type Config struct {
	// BaseURL is the API root, for example http://127.0.0.1:5000/api.
	BaseURL string
	// Timeout bounds each request. Zero disables the per-request deadline.
	Timeout time.Duration
	// BreakerFailures is the consecutive transport failure count that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the open breaker fails fast before probing again.
	BreakerCooldown time.Duration
	// HTTPClient defaults to a fresh http.Client.
	HTTPClient *http.Client
	// OnStateChange observes breaker transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error returns the server-provided message.
func (e *APIError) Error() string {
	return e.Message
}

// Client issues JSON requests against the API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// rawResponse is what one round trip produced.
type rawResponse struct {
	status int
	body   []byte
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https: %q", raw)
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("api timeout must be >= 0")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tally-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: cfg.OnStateChange,
	})
	return &Client{
		base:    base,
		http:    httpClient,
		timeout: cfg.Timeout,
		breaker: breaker,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Do sends one JSON request and decodes a JSON response into out.
// Empty or non-JSON bodies leave out untouched. Non-2xx statuses return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	resp := result.(rawResponse)

	parsed := json.Valid(resp.body)
	if resp.status < 200 || resp.status > 299 {
		return decodeAPIError(resp.status, resp.body, parsed)
	}
	if out == nil || !parsed {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// roundTrip performs the HTTP exchange. Only transport failures are returned as errors.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return rawResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return rawResponse{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return rawResponse{}, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return rawResponse{status: res.StatusCode, body: bytes.TrimSpace(data)}, nil
}

// decodeAPIError extracts the server's error message when present.
func decodeAPIError(status int, body []byte, parsed bool) error {
	apiErr := &APIError{Status: status, Message: fallbackMessage}
	if !parsed {
		return apiErr
	}
	var envelope struct {
		Error any    `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}
	apiErr.Code = envelope.Code
	if msg, ok := envelope.Error.(string); ok && strings.TrimSpace(msg) != "" {
		apiErr.Message = msg
	}
	return apiErr
}

// projectPath builds `/projects/{name}` plus optional escaped segments.
func projectPath(name string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/projects/")
	b.WriteString(url.PathEscape(name))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// ListProjects fetches every project.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.Do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, name string) (domain.Project, error) {
	var out domain.Project
	err := c.Do(ctx, http.MethodGet, projectPath(name), nil, &out)
	return out, err
}

// CreateProject creates one project.
func (c *Client) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	var out domain.Project
	err := c.Do(ctx, http.MethodPost, "/projects", map[string]string{"name": name}, &out)
	return out, err
}

// DeleteProject deletes one project, sending the re-typed confirmation.
func (c *Client) DeleteProject(ctx context.Context, name, confirmName string) error {
	return c.Do(ctx, http.MethodDelete, projectPath(name), map[string]string{"confirmName": confirmName}, nil)
}

// AddBacklog adds one free backlog.
func (c *Client) AddBacklog(ctx context.Context, project, name string) (domain.Project, error) {
	var out domain.Project
	err := c.Do(ctx, http.MethodPost, projectPath(project, "backlogs"), map[string]string{"name": name}, &out)
	return out, err
}

// RemoveBacklog removes one free backlog.
func (c *Client) RemoveBacklog(ctx context.Context, project, backlog string) (domain.Project, error) {
	var out domain.Project
	err := c.Do(ctx, http.MethodDelete, projectPath(project, "backlogs", backlog), nil, &out)
	return out, err
}

// AddTodo creates one to-do over the selected backlogs.
func (c *Client) AddTodo(ctx context.Context, project, name string, backlogs []string) (domain.Project, error) {
	if backlogs == nil {
		backlogs = []string{}
	}
	var out domain.Project
	err := c.Do(ctx, http.MethodPost, projectPath(project, "todos"), map[string]any{
		"name":     name,
		"backlogs": backlogs,
	}, &out)
	return out, err
}

// UpdateProgress sets one process progress.
func (c *Client) UpdateProgress(ctx context.Context, project, todoID, backlog string, progress float64) (domain.Project, error) {
	var out domain.Project
	err := c.Do(ctx, http.MethodPatch, projectPath(project, "todos", todoID, "progress"), map[string]any{
		"backlog":  backlog,
		"progress": progress,
	}, &out)
	return out, err
}
