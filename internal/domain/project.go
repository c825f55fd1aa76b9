package domain

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

// projectNameForbidden lists characters a project name may not contain.
const projectNameForbidden = `\/:*?"<>|`

var shortNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Project represents one tracked project with its free backlog names and to-dos.
type Project struct {
	Name      string    `json:"name"`
	Backlogs  []string  `json:"backlogs"`
	Todos     []Todo    `json:"todos"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// NewProject constructs an empty project after validating its name.
func NewProject(name string, now time.Time) (Project, error) {
	name, err := NormalizeProjectName(name)
	if err != nil {
		return Project{}, err
	}
	return Project{
		Name:      name,
		Backlogs:  []string{},
		Todos:     []Todo{},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// NormalizeProjectName trims name and rejects empty names or names with path-hostile characters.
func NormalizeProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, projectNameForbidden) {
		return "", ErrInvalidProjectName
	}
	return name, nil
}

// NormalizeBacklogName trims name and requires a single word of letters, digits, `_` or `-`.
func NormalizeBacklogName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !shortNamePattern.MatchString(name) {
		return "", ErrInvalidBacklogName
	}
	return name, nil
}

// NormalizeTodoName applies the backlog name rules to a to-do name.
func NormalizeTodoName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !shortNamePattern.MatchString(name) {
		return "", ErrInvalidTodoName
	}
	return name, nil
}

// HasFreeBacklog reports whether name is still in the project's free backlog list.
func (p Project) HasFreeBacklog(name string) bool {
	return slices.Contains(p.Backlogs, name)
}

// NameInUse reports whether name is taken by a free backlog or by any to-do process.
func (p Project) NameInUse(name string) bool {
	if p.HasFreeBacklog(name) {
		return true
	}
	for _, todo := range p.Todos {
		if todo.Process(name) != nil {
			return true
		}
	}
	return false
}

// AddBacklog appends one free backlog name.
func (p *Project) AddBacklog(name string, now time.Time) error {
	name, err := NormalizeBacklogName(name)
	if err != nil {
		return err
	}
	if p.NameInUse(name) {
		return ErrBacklogInUse
	}
	p.Backlogs = append(p.Backlogs, name)
	p.UpdatedAt = now.UTC()
	return nil
}

// RemoveBacklog drops one free backlog name. Names consumed by a to-do cannot be removed.
func (p *Project) RemoveBacklog(name string, now time.Time) error {
	if !p.HasFreeBacklog(name) {
		return ErrBacklogNotFree
	}
	p.Backlogs = slices.DeleteFunc(p.Backlogs, func(b string) bool { return b == name })
	p.UpdatedAt = now.UTC()
	return nil
}

// AddTodo creates a to-do tracking the selected free backlogs and removes them from the free list.
func (p *Project) AddTodo(id, name string, selected []string, now time.Time) (Todo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Todo{}, ErrInvalidID
	}
	name, err := NormalizeTodoName(name)
	if err != nil {
		return Todo{}, err
	}
	picked := dedupe(selected)
	if len(picked) == 0 {
		return Todo{}, ErrNoBacklogsSelected
	}
	for _, b := range picked {
		if !p.HasFreeBacklog(b) {
			return Todo{}, ErrBacklogsUnavailable
		}
	}

	processes := make([]Process, 0, len(picked))
	for _, b := range picked {
		processes = append(processes, Process{Name: b})
	}
	todo := Todo{
		ID:        id,
		Name:      name,
		Status:    TodoInProgress,
		Processes: processes,
	}
	todo.Recompute()
	p.Todos = append(p.Todos, todo)
	p.Backlogs = slices.DeleteFunc(p.Backlogs, func(b string) bool { return slices.Contains(picked, b) })
	p.UpdatedAt = now.UTC()
	return todo, nil
}

// Todo returns a pointer to the to-do with id, or nil.
func (p *Project) Todo(id string) *Todo {
	for i := range p.Todos {
		if p.Todos[i].ID == id {
			return &p.Todos[i]
		}
	}
	return nil
}

// SetProgress updates one process of one to-do. The value is clamped to [0,100].
func (p *Project) SetProgress(todoID, backlog string, progress float64, now time.Time) error {
	todo := p.Todo(todoID)
	if todo == nil {
		return ErrTodoNotFound
	}
	proc := todo.Process(backlog)
	if proc == nil {
		return ErrProcessNotFound
	}
	proc.Progress = ClampProgress(progress)
	todo.Recompute()
	p.UpdatedAt = now.UTC()
	return nil
}

// Summarize recomputes every to-do and the project-wide mean progress.
func (p *Project) Summarize() {
	if p.Backlogs == nil {
		p.Backlogs = []string{}
	}
	if p.Todos == nil {
		p.Todos = []Todo{}
	}
	if len(p.Todos) == 0 {
		p.Progress = 0
		return
	}
	var total float64
	for i := range p.Todos {
		p.Todos[i].Recompute()
		total += p.Todos[i].Progress
	}
	p.Progress = round2(total / float64(len(p.Todos)))
}

// ClampProgress bounds a progress value to [0,100]. NaN counts as 0.
func ClampProgress(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// round2 rounds half away from zero at two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dedupe trims names and drops blanks and repeats while keeping first-seen order.
func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
