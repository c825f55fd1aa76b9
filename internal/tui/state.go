package tui

import (
	"slices"

	"github.com/evanschultz/tally/internal/domain"
)

// State is the client-side store: the cached project list plus transient UI selection.
type State struct {
	projects []domain.Project

	// modalProject is the project targeted by the open modal.
	modalProject string
	// selectedBacklogs is the picker selection for a new to-do.
	selectedBacklogs []string
	// deleteTarget is the project pending deletion.
	deleteTarget string

	expandedProjects map[string]bool
	expandedTodos    map[string]bool
	// drafts holds uncommitted slider values keyed by processKey.
	drafts map[string]float64
}

// NewState constructs an empty store.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset clears every cached project and all transient UI state.
func (s *State) Reset() {
	s.projects = nil
	s.modalProject = ""
	s.selectedBacklogs = nil
	s.deleteTarget = ""
	s.expandedProjects = map[string]bool{}
	s.expandedTodos = map[string]bool{}
	s.drafts = map[string]float64{}
}

// Projects returns the cached projects in server order.
func (s *State) Projects() []domain.Project {
	return s.projects
}

// Project returns the cached project named name.
func (s *State) Project(name string) (domain.Project, bool) {
	idx := s.indexOf(name)
	if idx < 0 {
		return domain.Project{}, false
	}
	return s.projects[idx], true
}

// SetProjects replaces the whole list, as after a load.
func (s *State) SetProjects(projects []domain.Project) {
	s.projects = slices.Clone(projects)
	s.prune()
}

// ReplaceProject swaps the cached copy of p, appending it when unknown.
func (s *State) ReplaceProject(p domain.Project) {
	if idx := s.indexOf(p.Name); idx >= 0 {
		s.projects[idx] = p
	} else {
		s.projects = append(s.projects, p)
	}
	s.prune()
}

// RemoveProject drops the project named name.
func (s *State) RemoveProject(name string) {
	idx := s.indexOf(name)
	if idx < 0 {
		return
	}
	s.projects = slices.Delete(s.projects, idx, idx+1)
	s.prune()
}

// ProjectExpanded reports whether a project card is open.
func (s *State) ProjectExpanded(name string) bool {
	return s.expandedProjects[name]
}

// ToggleProject flips a project card open or closed.
func (s *State) ToggleProject(name string) {
	s.expandedProjects[name] = !s.expandedProjects[name]
}

// TodoExpanded reports whether a to-do card is open.
func (s *State) TodoExpanded(id string) bool {
	return s.expandedTodos[id]
}

// ToggleTodo flips a to-do card open or closed.
func (s *State) ToggleTodo(id string) {
	s.expandedTodos[id] = !s.expandedTodos[id]
}

// ProcessValue returns the draft slider value when one exists, otherwise the server value.
func (s *State) ProcessValue(todoID string, proc domain.Process) float64 {
	if v, ok := s.drafts[processKey(todoID, proc.Name)]; ok {
		return v
	}
	return proc.Progress
}

// SetDraft records an uncommitted slider value, clamped to [0,100].
func (s *State) SetDraft(todoID, backlog string, v float64) {
	s.drafts[processKey(todoID, backlog)] = domain.ClampProgress(v)
}

// ClearDraft drops the uncommitted value for one process.
func (s *State) ClearDraft(todoID, backlog string) {
	delete(s.drafts, processKey(todoID, backlog))
}

func (s *State) indexOf(name string) int {
	return slices.IndexFunc(s.projects, func(p domain.Project) bool {
		return p.Name == name
	})
}

// prune drops expand and draft keys that no longer name a live project or to-do.
func (s *State) prune() {
	projects := make(map[string]struct{}, len(s.projects))
	todos := map[string]struct{}{}
	processes := map[string]struct{}{}
	for _, p := range s.projects {
		projects[p.Name] = struct{}{}
		for _, t := range p.Todos {
			todos[t.ID] = struct{}{}
			for _, proc := range t.Processes {
				processes[processKey(t.ID, proc.Name)] = struct{}{}
			}
		}
	}
	for name := range s.expandedProjects {
		if _, ok := projects[name]; !ok {
			delete(s.expandedProjects, name)
		}
	}
	for id := range s.expandedTodos {
		if _, ok := todos[id]; !ok {
			delete(s.expandedTodos, id)
		}
	}
	for key := range s.drafts {
		if _, ok := processes[key]; !ok {
			delete(s.drafts, key)
		}
	}
}

func processKey(todoID, backlog string) string {
	return todoID + "\x00" + backlog
}
