package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evanschultz/tally/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service applies project, backlog and to-do rules on top of a Repository.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock

	// mu serializes read-modify-write cycles on project aggregates.
	mu sync.Mutex
}

// NewService constructs a service. A nil clock falls back to time.Now.
func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:  repo,
		idGen: idGen,
		clock: clock,
	}
}

// DeleteResult is the acknowledgement returned after a project is removed.
type DeleteResult struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// AddTodoInput holds input values for add to-do operations.
type AddTodoInput struct {
	Project  string
	Name     string
	Backlogs []string
}

// UpdateProgressInput holds input values for progress updates. A nil Progress means it was omitted.
type UpdateProgressInput struct {
	Project  string
	TodoID   string
	Backlog  string
	Progress *float64
}

// ListProjects returns every project summarized, in creation order.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Summarize()
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

// GetProject returns one summarized project.
func (s *Service) GetProject(ctx context.Context, name string) (domain.Project, error) {
	project, err := s.load(ctx, name)
	if err != nil {
		return domain.Project{}, err
	}
	project.Summarize()
	return project, nil
}

// CreateProject creates an empty project.
func (s *Service) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	project, err := domain.NewProject(name, s.clock())
	if err != nil {
		return domain.Project{}, classifyDomainError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.repo.GetProject(ctx, project.Name); err == nil {
		return domain.Project{}, newError(ErrConflict, msgProjectExists, nil)
	} else if !errors.Is(err, ErrNotFound) {
		return domain.Project{}, err
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		if errors.Is(err, ErrConflict) {
			return domain.Project{}, newError(ErrConflict, msgProjectExists, err)
		}
		return domain.Project{}, err
	}
	project.Summarize()
	return project, nil
}

// DeleteProject removes a project after checking the caller re-typed its exact name.
func (s *Service) DeleteProject(ctx context.Context, name, confirmName string) (DeleteResult, error) {
	if strings.TrimSpace(confirmName) != name {
		return DeleteResult{}, newError(ErrConfirmMismatch, msgConfirmMismatch, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.DeleteProject(ctx, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return DeleteResult{}, newError(ErrNotFound, msgProjectNotFound, err)
		}
		return DeleteResult{}, err
	}
	return DeleteResult{Status: "deleted", Name: name}, nil
}

// AddBacklog appends one free backlog to a project.
func (s *Service) AddBacklog(ctx context.Context, projectName, backlog string) (domain.Project, error) {
	backlog, err := domain.NormalizeBacklogName(backlog)
	if err != nil {
		return domain.Project{}, classifyDomainError(err)
	}
	return s.mutate(ctx, projectName, func(p *domain.Project, now time.Time) error {
		return p.AddBacklog(backlog, now)
	})
}

// RemoveBacklog drops one free backlog from a project.
func (s *Service) RemoveBacklog(ctx context.Context, projectName, backlog string) (domain.Project, error) {
	return s.mutate(ctx, projectName, func(p *domain.Project, now time.Time) error {
		return p.RemoveBacklog(backlog, now)
	})
}

// AddTodo creates a to-do that consumes the selected free backlogs.
func (s *Service) AddTodo(ctx context.Context, in AddTodoInput) (domain.Project, error) {
	name, err := domain.NormalizeTodoName(in.Name)
	if err != nil {
		return domain.Project{}, classifyDomainError(err)
	}
	if len(in.Backlogs) == 0 {
		return domain.Project{}, classifyDomainError(domain.ErrNoBacklogsSelected)
	}
	return s.mutate(ctx, in.Project, func(p *domain.Project, now time.Time) error {
		_, err := p.AddTodo(s.idGen(), name, in.Backlogs, now)
		return err
	})
}

// UpdateProgress sets the progress of one to-do process. Values outside [0,100] are clamped.
func (s *Service) UpdateProgress(ctx context.Context, in UpdateProgressInput) (domain.Project, error) {
	backlog := strings.TrimSpace(in.Backlog)
	if backlog == "" || in.Progress == nil {
		return domain.Project{}, newError(ErrInvalidInput, msgProgressRequired, nil)
	}
	progress := domain.ClampProgress(*in.Progress)
	return s.mutate(ctx, in.Project, func(p *domain.Project, now time.Time) error {
		return p.SetProgress(in.TodoID, backlog, progress, now)
	})
}

// ParseProgress converts a decoded JSON value into a progress number.
// Numbers and numeric strings are accepted. A nil value reports (nil, nil).
func ParseProgress(v any) (*float64, error) {
	var out float64
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case float64:
		out = typed
	case int:
		out = float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil, newError(ErrInvalidInput, msgProgressNotNumber, err)
		}
		out = parsed
	default:
		return nil, newError(ErrInvalidInput, msgProgressNotNumber, fmt.Errorf("unsupported progress type %T", v))
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, newError(ErrInvalidInput, msgProgressNotNumber, nil)
	}
	return &out, nil
}

// mutate loads, changes and stores one project under the service lock.
func (s *Service) mutate(ctx context.Context, name string, fn func(*domain.Project, time.Time) error) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.load(ctx, name)
	if err != nil {
		return domain.Project{}, err
	}
	if err := fn(&project, s.clock()); err != nil {
		return domain.Project{}, classifyDomainError(err)
	}
	project.Summarize()
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// load fetches one project and maps a miss to the caller-facing not found error.
func (s *Service) load(ctx context.Context, name string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Project{}, newError(ErrNotFound, msgProjectNotFound, err)
		}
		return domain.Project{}, err
	}
	return project, nil
}
