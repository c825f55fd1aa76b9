package main

import (
	"context"

	"github.com/evanschultz/tally/internal/app"
	"github.com/evanschultz/tally/internal/domain"
	"github.com/evanschultz/tally/internal/tui"
)

// localService lets the TUI drive the embedded sqlite service without an HTTP hop.
type localService struct {
	svc *app.Service
}

var _ tui.Service = localService{}

func (l localService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return l.svc.ListProjects(ctx)
}

func (l localService) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	return l.svc.CreateProject(ctx, name)
}

func (l localService) DeleteProject(ctx context.Context, name, confirmName string) error {
	_, err := l.svc.DeleteProject(ctx, name, confirmName)
	return err
}

func (l localService) AddBacklog(ctx context.Context, project, name string) (domain.Project, error) {
	return l.svc.AddBacklog(ctx, project, name)
}

func (l localService) RemoveBacklog(ctx context.Context, project, backlog string) (domain.Project, error) {
	return l.svc.RemoveBacklog(ctx, project, backlog)
}

func (l localService) AddTodo(ctx context.Context, project, name string, backlogs []string) (domain.Project, error) {
	return l.svc.AddTodo(ctx, app.AddTodoInput{Project: project, Name: name, Backlogs: backlogs})
}

func (l localService) UpdateProgress(ctx context.Context, project, todoID, backlog string, progress float64) (domain.Project, error) {
	return l.svc.UpdateProgress(ctx, app.UpdateProgressInput{
		Project:  project,
		TodoID:   todoID,
		Backlog:  backlog,
		Progress: &progress,
	})
}
