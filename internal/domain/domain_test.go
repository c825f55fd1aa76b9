package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewProjectValidation(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "trimmed", in: "  Alpha  ", want: "Alpha"},
		{name: "spaces inside", in: "My Big Project", want: "My Big Project"},
		{name: "unicode", in: "Проект", want: "Проект"},
		{name: "empty", in: "   ", wantErr: ErrInvalidProjectName},
		{name: "slash", in: "a/b", wantErr: ErrInvalidProjectName},
		{name: "backslash", in: `a\b`, wantErr: ErrInvalidProjectName},
		{name: "pipe", in: "a|b", wantErr: ErrInvalidProjectName},
		{name: "quote", in: `a"b`, wantErr: ErrInvalidProjectName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProject(tc.in, now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProject() error = %v", err)
			}
			if p.Name != tc.want {
				t.Fatalf("unexpected name %q", p.Name)
			}
			if p.Backlogs == nil || p.Todos == nil {
				t.Fatal("expected non-nil empty slices")
			}
		})
	}
}

func TestShortNameValidation(t *testing.T) {
	for _, ok := range []string{"Design", "qa_1", "re-view", " trimmed "} {
		if _, err := NormalizeBacklogName(ok); err != nil {
			t.Fatalf("NormalizeBacklogName(%q) error = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "two words", "dot.name", "ünï"} {
		if _, err := NormalizeBacklogName(bad); !errors.Is(err, ErrInvalidBacklogName) {
			t.Fatalf("expected ErrInvalidBacklogName for %q, got %v", bad, err)
		}
		if _, err := NormalizeTodoName(bad); !errors.Is(err, ErrInvalidTodoName) {
			t.Fatalf("expected ErrInvalidTodoName for %q, got %v", bad, err)
		}
	}
}

func TestBacklogLifecycle(t *testing.T) {
	now := time.Now()
	p, _ := NewProject("Alpha", now)
	if err := p.AddBacklog("Design", now); err != nil {
		t.Fatalf("AddBacklog() error = %v", err)
	}
	if err := p.AddBacklog("Design", now); !errors.Is(err, ErrBacklogInUse) {
		t.Fatalf("expected ErrBacklogInUse, got %v", err)
	}
	if err := p.RemoveBacklog("Design", now); err != nil {
		t.Fatalf("RemoveBacklog() error = %v", err)
	}
	if len(p.Backlogs) != 0 {
		t.Fatalf("expected no backlogs, got %v", p.Backlogs)
	}
	if err := p.RemoveBacklog("Design", now); !errors.Is(err, ErrBacklogNotFree) {
		t.Fatalf("expected ErrBacklogNotFree, got %v", err)
	}
}

func TestAddTodoConsumesBacklogs(t *testing.T) {
	now := time.Now()
	p, _ := NewProject("Alpha", now)
	for _, b := range []string{"Design", "Build", "Ship"} {
		if err := p.AddBacklog(b, now); err != nil {
			t.Fatalf("AddBacklog(%q) error = %v", b, err)
		}
	}
	if _, err := p.AddTodo("t1", "Draft", nil, now); !errors.Is(err, ErrNoBacklogsSelected) {
		t.Fatalf("expected ErrNoBacklogsSelected, got %v", err)
	}
	if _, err := p.AddTodo("t1", "Draft", []string{"Design", "Nope"}, now); !errors.Is(err, ErrBacklogsUnavailable) {
		t.Fatalf("expected ErrBacklogsUnavailable, got %v", err)
	}
	todo, err := p.AddTodo("t1", "Draft", []string{"Ship", "Design", "Ship"}, now)
	if err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	if len(todo.Processes) != 2 || todo.Processes[0].Name != "Ship" || todo.Processes[1].Name != "Design" {
		t.Fatalf("unexpected processes %#v", todo.Processes)
	}
	if len(p.Backlogs) != 1 || p.Backlogs[0] != "Build" {
		t.Fatalf("expected only Build to stay free, got %v", p.Backlogs)
	}
	if err := p.AddBacklog("Design", now); !errors.Is(err, ErrBacklogInUse) {
		t.Fatalf("expected process names to block reuse, got %v", err)
	}
	if err := p.RemoveBacklog("Design", now); !errors.Is(err, ErrBacklogNotFree) {
		t.Fatalf("expected consumed backlog removal to fail, got %v", err)
	}
}

func TestSetProgressClampsAndRecomputes(t *testing.T) {
	now := time.Now()
	p, _ := NewProject("Alpha", now)
	_ = p.AddBacklog("A", now)
	_ = p.AddBacklog("B", now)
	_ = p.AddBacklog("C", now)
	if _, err := p.AddTodo("t1", "Draft", []string{"A", "B", "C"}, now); err != nil {
		t.Fatalf("AddTodo() error = %v", err)
	}
	if err := p.SetProgress("t1", "A", 150, now); err != nil {
		t.Fatalf("SetProgress() error = %v", err)
	}
	if err := p.SetProgress("t1", "B", -4, now); err != nil {
		t.Fatalf("SetProgress() error = %v", err)
	}
	todo := p.Todo("t1")
	if todo.Process("A").Progress != 100 || todo.Process("B").Progress != 0 {
		t.Fatalf("expected clamped values, got %#v", todo.Processes)
	}
	if todo.Progress != 33.33 {
		t.Fatalf("expected 33.33, got %v", todo.Progress)
	}
	if todo.Completed() {
		t.Fatal("expected in_progress")
	}
	_ = p.SetProgress("t1", "B", 100, now)
	_ = p.SetProgress("t1", "C", 100, now)
	if !todo.Completed() || todo.Progress != 100 {
		t.Fatalf("expected completed at 100, got %s %v", todo.Status, todo.Progress)
	}
	if err := p.SetProgress("missing", "A", 1, now); !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
	if err := p.SetProgress("t1", "Z", 1, now); !errors.Is(err, ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	p := Project{Name: "Alpha"}
	p.Summarize()
	if p.Progress != 0 || p.Backlogs == nil || p.Todos == nil {
		t.Fatalf("unexpected empty summary %#v", p)
	}
	p.Todos = []Todo{
		{ID: "a", Processes: []Process{{Name: "x", Progress: 100}}},
		{ID: "b", Processes: []Process{{Name: "y", Progress: 0}, {Name: "z", Progress: 50}}},
		{ID: "c"},
	}
	p.Summarize()
	if p.Todos[0].Status != TodoCompleted || p.Todos[1].Progress != 25 || p.Todos[2].Status != TodoInProgress {
		t.Fatalf("unexpected todos %#v", p.Todos)
	}
	if p.Progress != 41.67 {
		t.Fatalf("expected 41.67, got %v", p.Progress)
	}
}

func TestClampProgress(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 42.5: 42.5, 100: 100, 150: 100}
	for in, want := range cases {
		if got := ClampProgress(in); got != want {
			t.Fatalf("ClampProgress(%v) = %v, want %v", in, got, want)
		}
	}
	if got := ClampProgress(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to clamp to 0, got %v", got)
	}
}
