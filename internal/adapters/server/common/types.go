// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/evanschultz/tally/internal/domain"
)

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports names that are already taken.
var ErrConflict = errors.New("conflict")

// ErrInvalidRequest reports malformed or rule-violating input.
var ErrInvalidRequest = errors.New("invalid request")

// CreateProjectRequest creates one empty project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// DeleteProjectRequest removes one project once ConfirmName matches it.
type DeleteProjectRequest struct {
	Name        string `json:"-"`
	ConfirmName string `json:"confirmName"`
}

// AddBacklogRequest appends one free backlog.
type AddBacklogRequest struct {
	Project string `json:"-"`
	Name    string `json:"name"`
}

// RemoveBacklogRequest drops one free backlog.
type RemoveBacklogRequest struct {
	Project string
	Backlog string
}

// AddTodoRequest creates one to-do over the selected free backlogs.
type AddTodoRequest struct {
	Project  string   `json:"-"`
	Name     string   `json:"name"`
	Backlogs []string `json:"backlogs"`
}

// UpdateProgressRequest sets one process progress. Progress keeps its decoded JSON form.
type UpdateProgressRequest struct {
	Project  string `json:"-"`
	TodoID   string `json:"-"`
	Backlog  string `json:"backlog"`
	Progress any    `json:"progress"`
}

// DeleteResult acknowledges a removed project.
type DeleteResult struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// ProjectService is the contract both transports serve.
type ProjectService interface {
	ListProjects(context.Context) ([]domain.Project, error)
	GetProject(context.Context, string) (domain.Project, error)
	CreateProject(context.Context, CreateProjectRequest) (domain.Project, error)
	DeleteProject(context.Context, DeleteProjectRequest) (DeleteResult, error)
	AddBacklog(context.Context, AddBacklogRequest) (domain.Project, error)
	RemoveBacklog(context.Context, RemoveBacklogRequest) (domain.Project, error)
	AddTodo(context.Context, AddTodoRequest) (domain.Project, error)
	UpdateProgress(context.Context, UpdateProgressRequest) (domain.Project, error)
}
