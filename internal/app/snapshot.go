package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/tally/internal/domain"
)

// SnapshotVersion defines the snapshot format identifier.
const SnapshotVersion = "tally.snapshot.v1"

// Snapshot is a portable copy of every stored project.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Projects   []SnapshotProject `json:"projects"`
}

// SnapshotProject represents one project row in a snapshot.
type SnapshotProject struct {
	Name      string        `json:"name"`
	Backlogs  []string      `json:"backlogs"`
	Todos     []domain.Todo `json:"todos"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ExportSnapshot captures all projects in creation order.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   make([]SnapshotProject, 0, len(projects)),
	}
	for _, p := range projects {
		p.Summarize()
		snap.Projects = append(snap.Projects, snapshotProjectFromDomain(p))
	}
	return snap, nil
}

// ImportSnapshot upserts every project in snap.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, project := range snap.Projects {
		if err := s.upsertProject(ctx, project.toDomain()); err != nil {
			return fmt.Errorf("import project %q: %w", project.Name, err)
		}
	}
	return nil
}

// Validate checks names, timestamps and backlog bookkeeping for each project.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	seen := map[string]struct{}{}
	for i, p := range s.Projects {
		name, err := domain.NormalizeProjectName(p.Name)
		if err != nil {
			return fmt.Errorf("projects[%d].name: %w", i, err)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate project name: %q", name)
		}
		seen[name] = struct{}{}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			return fmt.Errorf("projects[%d] timestamps are required", i)
		}
		used := map[string]struct{}{}
		for _, b := range p.Backlogs {
			if _, err := domain.NormalizeBacklogName(b); err != nil {
				return fmt.Errorf("projects[%d].backlogs %q: %w", i, b, err)
			}
			if _, dup := used[b]; dup {
				return fmt.Errorf("projects[%d] backlog %q used twice", i, b)
			}
			used[b] = struct{}{}
		}
		for j, todo := range p.Todos {
			if strings.TrimSpace(todo.ID) == "" {
				return fmt.Errorf("projects[%d].todos[%d].id is required", i, j)
			}
			for _, proc := range todo.Processes {
				if _, dup := used[proc.Name]; dup {
					return fmt.Errorf("projects[%d] backlog %q used twice", i, proc.Name)
				}
				used[proc.Name] = struct{}{}
			}
		}
	}
	return nil
}

// upsertProject updates an existing project or creates a missing one.
func (s *Service) upsertProject(ctx context.Context, p domain.Project) error {
	if _, err := s.repo.GetProject(ctx, p.Name); err == nil {
		return s.repo.UpdateProject(ctx, p)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.CreateProject(ctx, p)
}

// snapshotProjectFromDomain converts a project into its snapshot row.
func snapshotProjectFromDomain(p domain.Project) SnapshotProject {
	return SnapshotProject{
		Name:      p.Name,
		Backlogs:  slices.Clone(p.Backlogs),
		Todos:     cloneTodos(p.Todos),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// toDomain converts a snapshot row into a summarized project.
func (p SnapshotProject) toDomain() domain.Project {
	out := domain.Project{
		Name:      strings.TrimSpace(p.Name),
		Backlogs:  slices.Clone(p.Backlogs),
		Todos:     cloneTodos(p.Todos),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	for i := range out.Todos {
		for j := range out.Todos[i].Processes {
			out.Todos[i].Processes[j].Progress = domain.ClampProgress(out.Todos[i].Processes[j].Progress)
		}
	}
	out.Summarize()
	return out
}

// cloneTodos deep-copies to-dos so process slices are not shared.
func cloneTodos(in []domain.Todo) []domain.Todo {
	out := make([]domain.Todo, len(in))
	for i, t := range in {
		t.Processes = slices.Clone(t.Processes)
		out[i] = t
	}
	return out
}
