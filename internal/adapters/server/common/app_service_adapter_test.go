package common

import (
	"context"
	"errors"
	"testing"

	"github.com/evanschultz/tally/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tally/internal/app"
)

func newAdapterFixture(t *testing.T) *AppServiceAdapter {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return NewAppServiceAdapter(app.NewService(repo, func() string { return "todo-1" }, nil))
}

func TestAppServiceAdapterMapsErrors(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapterFixture(t)

	if _, err := adapter.CreateProject(ctx, CreateProjectRequest{Name: "Alpha"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	cases := []struct {
		name    string
		call    func() error
		want    error
		message string
	}{
		{
			name: "duplicate project",
			call: func() error {
				_, err := adapter.CreateProject(ctx, CreateProjectRequest{Name: "Alpha"})
				return err
			},
			want:    ErrConflict,
			message: "Project already exists.",
		},
		{
			name: "missing project",
			call: func() error {
				_, err := adapter.GetProject(ctx, "Ghost")
				return err
			},
			want:    ErrNotFound,
			message: "Project not found.",
		},
		{
			name: "confirm mismatch",
			call: func() error {
				_, err := adapter.DeleteProject(ctx, DeleteProjectRequest{Name: "Alpha", ConfirmName: "Beta"})
				return err
			},
			want:    ErrInvalidRequest,
			message: "Project name does not match confirmation.",
		},
		{
			name: "non numeric progress",
			call: func() error {
				_, err := adapter.UpdateProgress(ctx, UpdateProgressRequest{Project: "Alpha", TodoID: "x", Backlog: "b", Progress: "many"})
				return err
			},
			want:    ErrInvalidRequest,
			message: "Progress must be a number.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := Message(err); got != tc.message {
				t.Fatalf("Message() = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestAppServiceAdapterTodoFlow(t *testing.T) {
	ctx := context.Background()
	adapter := newAdapterFixture(t)
	_, _ = adapter.CreateProject(ctx, CreateProjectRequest{Name: "Alpha"})
	if _, err := adapter.AddBacklog(ctx, AddBacklogRequest{Project: "Alpha", Name: "Design"}); err != nil {
		t.Fatalf("AddBacklog() error = %v", err)
	}
	if _, err := adapter.AddTodo(ctx, AddTodoRequest{Project: "Alpha", Name: "Draft", Backlogs: []string{"Design"}}); err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	project, err := adapter.UpdateProgress(ctx, UpdateProgressRequest{Project: "Alpha", TodoID: "todo-1", Backlog: "Design", Progress: "150"})
	if err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if project.Todos[0].Processes[0].Progress != 100 {
		t.Fatalf("expected clamped progress, got %#v", project.Todos[0])
	}
	res, err := adapter.DeleteProject(ctx, DeleteProjectRequest{Name: "Alpha", ConfirmName: "Alpha"})
	if err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if res.Status != "deleted" {
		t.Fatalf("unexpected delete result %#v", res)
	}
}

func TestNilAdapterIsRejected(t *testing.T) {
	var adapter *AppServiceAdapter
	if _, err := adapter.ListProjects(context.Background()); !errors.Is(err, errAdapterNotConfigured) {
		t.Fatalf("expected errAdapterNotConfigured, got %v", err)
	}
}
