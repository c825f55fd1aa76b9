package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/tally/internal/app"
	"github.com/evanschultz/tally/internal/domain"
)

func TestRepository_ProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	project, err := domain.NewProject("Alpha", now)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if err := repo.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if err := repo.CreateProject(ctx, project); !errors.Is(err, app.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate, got %v", err)
	}

	_ = project.AddBacklog("Design", now)
	_ = project.AddBacklog("Build", now)
	if _, err := project.AddTodo("t1", "Draft", []string{"Design"}, now.Add(time.Minute)); err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	_ = project.SetProgress("t1", "Design", 60, now.Add(time.Minute))
	if err := repo.UpdateProject(ctx, project); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	loaded, err := repo.GetProject(ctx, "Alpha")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if len(loaded.Backlogs) != 1 || loaded.Backlogs[0] != "Build" {
		t.Fatalf("unexpected backlogs %v", loaded.Backlogs)
	}
	if len(loaded.Todos) != 1 || loaded.Todos[0].Processes[0].Progress != 60 {
		t.Fatalf("unexpected todos %#v", loaded.Todos)
	}
	if !loaded.CreatedAt.Equal(now) || !loaded.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected timestamps %v %v", loaded.CreatedAt, loaded.UpdatedAt)
	}

	if err := repo.DeleteProject(ctx, "Alpha"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := repo.GetProject(ctx, "Alpha"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteProject(ctx, "Alpha"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := repo.UpdateProject(ctx, project); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of missing row, got %v", err)
	}
}

func TestRepository_ListProjectsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Zeta", "Alpha", "Mid"} {
		p, _ := domain.NewProject(name, base.Add(time.Duration(i)*time.Second))
		if err := repo.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject(%q) error = %v", name, err)
		}
	}
	list, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	got := []string{}
	for _, p := range list {
		got = append(got, p.Name)
		if p.Backlogs == nil || p.Todos == nil {
			t.Fatalf("expected non-nil slices for %q", p.Name)
		}
	}
	if len(got) != 3 || got[0] != "Zeta" || got[1] != "Alpha" || got[2] != "Mid" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestRepository_ServiceIntegration(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	svc := app.NewService(repo, func() string { return "todo-1" }, nil)
	if _, err := svc.CreateProject(ctx, "Alpha"); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := svc.CreateProject(ctx, "Alpha"); !errors.Is(err, app.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.AddBacklog(ctx, "Alpha", "Design"); err != nil {
		t.Fatalf("AddBacklog() error = %v", err)
	}
	p, err := svc.AddTodo(ctx, app.AddTodoInput{Project: "Alpha", Name: "Draft", Backlogs: []string{"Design"}})
	if err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	if len(p.Backlogs) != 0 || len(p.Todos) != 1 {
		t.Fatalf("unexpected project %#v", p)
	}
}
