package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/tally/internal/adapters/server/common"
	"github.com/evanschultz/tally/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tally/internal/app"
)

func newProjects(t *testing.T) common.ProjectService {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return common.NewAppServiceAdapter(app.NewService(repo, nil, nil))
}

func TestNewHandlerRoutesHealthAndAPI(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Projects: newProjects(t)})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.APIEndpoint != "/api" || cfg.MCPEndpoint != "/mcp" || cfg.HTTPBind != defaultBindAddress {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Fatalf("%s: status=%d body=%s", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name":"My Project"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/My%20Project", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"My Project"`) {
		t.Fatalf("get escaped name: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestNormalizeConfig(t *testing.T) {
	cfg, err := normalizeConfig(Config{APIEndpoint: "api/", MCPEndpoint: " /tools/mcp/ "})
	if err != nil {
		t.Fatalf("normalizeConfig() error = %v", err)
	}
	if cfg.APIEndpoint != "/api" || cfg.MCPEndpoint != "/tools/mcp" || cfg.ServerName != "tally" {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if _, err := normalizeConfig(Config{APIEndpoint: "/x", MCPEndpoint: "x"}); err == nil {
		t.Fatal("expected endpoint collision error")
	}
}

func TestNewHandlerRequiresProjects(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing dependency error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Projects: newProjects(t)})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
