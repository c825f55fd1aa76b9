// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/tally/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the project tools.
func NewHandler(cfg Config, projects common.ProjectService) (*Handler, error) {
	if projects == nil {
		return nil, fmt.Errorf("project service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProjectTools(mcpSrv, projects)
	registerBacklogTools(mcpSrv, projects)
	registerTodoTools(mcpSrv, projects)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tally"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerProjectTools registers list/get/create/delete project tools.
func registerProjectTools(srv *mcpserver.MCPServer, projects common.ProjectService) {
	srv.AddTool(
		mcp.NewTool(
			"tally.list_projects",
			mcp.WithDescription("List every project with its free backlogs, to-dos and progress."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			list, err := projects.ListProjects(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(map[string]any{"projects": list})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tally.get_project",
			mcp.WithDescription("Return one project by name."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			project, err := projects.GetProject(ctx, name)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(project)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tally.create_project",
			mcp.WithDescription("Create an empty project."),
			mcp.WithString("name", mcp.Required(), mcp.Description(`Project name; may not contain / \ : * ? " < > |`)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			project, err := projects.CreateProject(ctx, common.CreateProjectRequest{Name: name})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(project)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tally.delete_project",
			mcp.WithDescription("Delete a project. confirm_name must repeat the exact project name."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("confirm_name", mcp.Required(), mcp.Description("Project name typed again")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			confirm, err := req.RequireString("confirm_name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := projects.DeleteProject(ctx, common.DeleteProjectRequest{Name: name, ConfirmName: confirm})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(res)
		},
	)
}

// registerBacklogTools registers add/remove backlog tools.
func registerBacklogTools(srv *mcpserver.MCPServer, projects common.ProjectService) {
	srv.AddTool(
		mcp.NewTool(
			"tally.add_backlog",
			mcp.WithDescription("Add one free backlog to a project."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Backlog name: letters, numbers, _ or -")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := projects.AddBacklog(ctx, common.AddBacklogRequest{Project: project, Name: name})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tally.remove_backlog",
			mcp.WithDescription("Remove one free backlog from a project."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("backlog", mcp.Required(), mcp.Description("Backlog name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			backlog, err := req.RequireString("backlog")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := projects.RemoveBacklog(ctx, common.RemoveBacklogRequest{Project: project, Backlog: backlog})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(out)
		},
	)
}

// registerTodoTools registers to-do creation and progress tools.
func registerTodoTools(srv *mcpserver.MCPServer, projects common.ProjectService) {
	srv.AddTool(
		mcp.NewTool(
			"tally.add_todo",
			mcp.WithDescription("Create a to-do that consumes the selected free backlogs."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("name", mcp.Required(), mcp.Description("To-do name: letters, numbers, _ or -")),
			mcp.WithArray("backlogs", mcp.Required(), mcp.Description("Free backlog names to track"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			backlogs, err := req.RequireStringSlice("backlogs")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := projects.AddTodo(ctx, common.AddTodoRequest{Project: project, Name: name, Backlogs: backlogs})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tally.update_progress",
			mcp.WithDescription("Set one backlog's progress inside a to-do. Values are clamped to 0..100."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
			mcp.WithString("todo_id", mcp.Required(), mcp.Description("To-do identifier")),
			mcp.WithString("backlog", mcp.Required(), mcp.Description("Backlog name inside the to-do")),
			mcp.WithNumber("progress", mcp.Required(), mcp.Description("Progress percentage")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			project, err := req.RequireString("project")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			todoID, err := req.RequireString("todo_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := projects.UpdateProgress(ctx, common.UpdateProgressRequest{
				Project:  project,
				TodoID:   todoID,
				Backlog:  req.GetString("backlog", ""),
				Progress: req.GetArguments()["progress"],
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult(out)
		},
	)
}

// jsonResult encodes one structured tool result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return result, nil
}

// toolResultFromError maps adapter errors into prefixed tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + common.Message(err))
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + common.Message(err))
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + common.Message(err))
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
