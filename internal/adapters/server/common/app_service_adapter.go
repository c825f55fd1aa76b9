package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/tally/internal/app"
	"github.com/evanschultz/tally/internal/domain"
)

// errAdapterNotConfigured reports a nil adapter or service.
var errAdapterNotConfigured = errors.New("app service adapter is not configured")

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListProjects returns every summarized project.
func (a *AppServiceAdapter) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	projects, err := a.service.ListProjects(ctx)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	return projects, nil
}

// GetProject returns one summarized project.
func (a *AppServiceAdapter) GetProject(ctx context.Context, name string) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	project, err := a.service.GetProject(ctx, name)
	if err != nil {
		return domain.Project{}, mapAppError("get project", err)
	}
	return project, nil
}

// CreateProject creates one project.
func (a *AppServiceAdapter) CreateProject(ctx context.Context, in CreateProjectRequest) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	project, err := a.service.CreateProject(ctx, in.Name)
	if err != nil {
		return domain.Project{}, mapAppError("create project", err)
	}
	return project, nil
}

// DeleteProject removes one project.
func (a *AppServiceAdapter) DeleteProject(ctx context.Context, in DeleteProjectRequest) (DeleteResult, error) {
	if err := a.ready(); err != nil {
		return DeleteResult{}, err
	}
	res, err := a.service.DeleteProject(ctx, in.Name, in.ConfirmName)
	if err != nil {
		return DeleteResult{}, mapAppError("delete project", err)
	}
	return DeleteResult{Status: res.Status, Name: res.Name}, nil
}

// AddBacklog appends one free backlog.
func (a *AppServiceAdapter) AddBacklog(ctx context.Context, in AddBacklogRequest) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	project, err := a.service.AddBacklog(ctx, in.Project, in.Name)
	if err != nil {
		return domain.Project{}, mapAppError("add backlog", err)
	}
	return project, nil
}

// RemoveBacklog drops one free backlog.
func (a *AppServiceAdapter) RemoveBacklog(ctx context.Context, in RemoveBacklogRequest) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	project, err := a.service.RemoveBacklog(ctx, in.Project, in.Backlog)
	if err != nil {
		return domain.Project{}, mapAppError("remove backlog", err)
	}
	return project, nil
}

// AddTodo creates one to-do.
func (a *AppServiceAdapter) AddTodo(ctx context.Context, in AddTodoRequest) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	project, err := a.service.AddTodo(ctx, app.AddTodoInput{
		Project:  in.Project,
		Name:     in.Name,
		Backlogs: in.Backlogs,
	})
	if err != nil {
		return domain.Project{}, mapAppError("add to do", err)
	}
	return project, nil
}

// UpdateProgress parses the raw progress value and applies it.
func (a *AppServiceAdapter) UpdateProgress(ctx context.Context, in UpdateProgressRequest) (domain.Project, error) {
	if err := a.ready(); err != nil {
		return domain.Project{}, err
	}
	progress, err := app.ParseProgress(in.Progress)
	if err != nil {
		return domain.Project{}, mapAppError("update progress", err)
	}
	project, err := a.service.UpdateProgress(ctx, app.UpdateProgressInput{
		Project:  in.Project,
		TodoID:   in.TodoID,
		Backlog:  in.Backlog,
		Progress: progress,
	})
	if err != nil {
		return domain.Project{}, mapAppError("update progress", err)
	}
	return project, nil
}

// ready rejects calls on an unconfigured adapter.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return errAdapterNotConfigured
	}
	return nil
}

// mapAppError joins app errors with the matching transport sentinel.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrConflict):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrConfirmMismatch):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

// Message returns the caller-facing text for err, without operation prefixes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *app.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return strings.TrimSpace(err.Error())
}
