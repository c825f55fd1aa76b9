package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evanschultz/tally/internal/domain"
	"github.com/sony/gobreaker"
)

// newTestClient builds a client against one httptest server.
func newTestClient(t *testing.T, handler http.Handler, cfg Config) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL + "/api/"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewValidatesConfig(t *testing.T) {
	cases := []Config{
		{},
		{BaseURL: "ftp://example.com"},
		{BaseURL: "http://example.com", Timeout: -time.Second},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected config error for %#v", cfg)
		}
	}
	client, err := New(Config{BaseURL: " http://localhost:5000/api/ "})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := client.BaseURL(); got != "http://localhost:5000/api" {
		t.Fatalf("BaseURL() = %q", got)
	}
}

func TestClientTypedCallsUseEscapedPaths(t *testing.T) {
	type seen struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []seen
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, seen{method: r.Method, path: r.URL.EscapedPath(), body: body})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Project{Name: "My Project", Backlogs: []string{}, Todos: []domain.Todo{}})
	})
	client := newTestClient(t, handler, Config{})
	ctx := context.Background()

	if _, err := client.CreateProject(ctx, "My Project"); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := client.AddBacklog(ctx, "My Project", "Design"); err != nil {
		t.Fatalf("AddBacklog() error = %v", err)
	}
	if _, err := client.AddTodo(ctx, "My Project", "Draft", nil); err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	if _, err := client.UpdateProgress(ctx, "My Project", "t-1", "Design", 40); err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if _, err := client.RemoveBacklog(ctx, "My Project", "Design"); err != nil {
		t.Fatalf("RemoveBacklog() error = %v", err)
	}
	if err := client.DeleteProject(ctx, "My Project", "My Project"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/api/projects"},
		{http.MethodPost, "/api/projects/My%20Project/backlogs"},
		{http.MethodPost, "/api/projects/My%20Project/todos"},
		{http.MethodPatch, "/api/projects/My%20Project/todos/t-1/progress"},
		{http.MethodDelete, "/api/projects/My%20Project/backlogs/Design"},
		{http.MethodDelete, "/api/projects/My%20Project"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, w := range want {
		if calls[i].method != w.method || calls[i].path != w.path {
			t.Fatalf("call %d = %s %s, want %s %s", i, calls[i].method, calls[i].path, w.method, w.path)
		}
	}
	if got, ok := calls[2].body["backlogs"].([]any); !ok || len(got) != 0 {
		t.Fatalf("expected empty backlogs array, got %#v", calls[2].body["backlogs"])
	}
	if got := calls[3].body["progress"]; got != float64(40) {
		t.Fatalf("expected progress 40, got %#v", got)
	}
	if got := calls[5].body["confirmName"]; got != "My Project" {
		t.Fatalf("expected confirmName, got %#v", got)
	}
}

func TestClientErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{name: "server message", status: http.StatusConflict, body: `{"error":"Project already exists.","code":"conflict"}`, message: "Project already exists.", code: "conflict"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, message: "Request failed"},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "Request failed"},
		{name: "blank error", status: http.StatusBadRequest, body: `{"error":"  "}`, message: "Request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}), Config{})
			_, err := client.GetProject(context.Background(), "Alpha")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.Status != tc.status || apiErr.Message != tc.message || apiErr.Code != tc.code {
				t.Fatalf("unexpected api error %#v", apiErr)
			}
		})
	}
}

func TestClientNonJSONSuccessLeavesOutputEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}), Config{})
	list, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}
}

func TestClientHTTPErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), Config{BreakerFailures: 1})
	for range 4 {
		_, err := client.ListProjects(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
	}
	if got := hits.Load(); got != 4 {
		t.Fatalf("expected every request to reach the server, got %d", got)
	}
}

func TestClientBreakerFailsFastAfterTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	var transitions atomic.Int32
	client, err := New(Config{
		BaseURL:         baseURL,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
		OnStateChange: func(string, gobreaker.State, gobreaker.State) {
			transitions.Add(1)
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for range 2 {
		if _, err := client.ListProjects(context.Background()); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected transport error, got %v", err)
		}
	}
	if _, err := client.ListProjects(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once open, got %v", err)
	}
	if transitions.Load() != 1 {
		t.Fatalf("expected one breaker transition, got %d", transitions.Load())
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), Config{Timeout: 20 * time.Millisecond})
	defer close(release)
	if _, err := client.ListProjects(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}
