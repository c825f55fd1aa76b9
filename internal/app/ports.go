package app

import (
	"context"

	"github.com/evanschultz/tally/internal/domain"
)

// Repository persists whole project aggregates keyed by name.
type Repository interface {
	CreateProject(context.Context, domain.Project) error
	UpdateProject(context.Context, domain.Project) error
	GetProject(context.Context, string) (domain.Project, error)
	ListProjects(context.Context) ([]domain.Project, error)
	DeleteProject(context.Context, string) error
}
