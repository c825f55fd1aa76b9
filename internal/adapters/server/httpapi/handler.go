// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evanschultz/tally/internal/adapters/server/common"
	"github.com/gorilla/mux"
)

// maxRequestBodyBytes limits decoded JSON payload size.
const maxRequestBodyBytes int64 = 1 << 20

// RequestLogger receives one line per served request.
type RequestLogger interface {
	Info(msg any, keyvals ...any)
}

// Handler serves the project API subrouter mounted under `/api`.
type Handler struct {
	service common.ProjectService
	router  *mux.Router
}

// ErrorEnvelope is the flat error body returned on failures.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHandler constructs the HTTP API adapter. logger may be nil.
func NewHandler(service common.ProjectService, logger RequestLogger) *Handler {
	h := &Handler{service: service, router: mux.NewRouter()}

	r := h.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "endpoint not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	if logger != nil {
		r.Use(requestLogging(logger))
	}

	r.HandleFunc("/projects", h.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects", h.handleCreateProject).Methods(http.MethodPost)
	r.HandleFunc("/projects/{name}", h.handleGetProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/{name}", h.handleDeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/projects/{name}/backlogs", h.handleAddBacklog).Methods(http.MethodPost)
	r.HandleFunc("/projects/{name}/backlogs/{backlog}", h.handleRemoveBacklog).Methods(http.MethodDelete)
	r.HandleFunc("/projects/{name}/todos", h.handleAddTodo).Methods(http.MethodPost)
	r.HandleFunc("/projects/{name}/todos/{todoID}/progress", h.handleUpdateProgress).Methods(http.MethodPatch)
	return h
}

// ServeHTTP routes one API request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "project service is not configured")
		return
	}
	h.router.ServeHTTP(w, r)
}

// handleListProjects serves GET `/projects`.
func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// handleCreateProject serves POST `/projects`.
func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLenientJSONBody[common.CreateProjectRequest](w, r)
	if !ok {
		return
	}
	project, err := h.service.CreateProject(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleGetProject serves GET `/projects/{name}`.
func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleDeleteProject serves DELETE `/projects/{name}`.
func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLenientJSONBody[common.DeleteProjectRequest](w, r)
	if !ok {
		return
	}
	req.Name = mux.Vars(r)["name"]
	res, err := h.service.DeleteProject(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAddBacklog serves POST `/projects/{name}/backlogs`.
func (h *Handler) handleAddBacklog(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLenientJSONBody[common.AddBacklogRequest](w, r)
	if !ok {
		return
	}
	req.Project = mux.Vars(r)["name"]
	project, err := h.service.AddBacklog(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleRemoveBacklog serves DELETE `/projects/{name}/backlogs/{backlog}`.
func (h *Handler) handleRemoveBacklog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	project, err := h.service.RemoveBacklog(r.Context(), common.RemoveBacklogRequest{
		Project: vars["name"],
		Backlog: vars["backlog"],
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleAddTodo serves POST `/projects/{name}/todos`.
func (h *Handler) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLenientJSONBody[common.AddTodoRequest](w, r)
	if !ok {
		return
	}
	req.Project = mux.Vars(r)["name"]
	project, err := h.service.AddTodo(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// handleUpdateProgress serves PATCH `/projects/{name}/todos/{todoID}/progress`.
func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLenientJSONBody[common.UpdateProgressRequest](w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	req.Project = vars["name"]
	req.TodoID = vars["todoID"]
	project, err := h.service.UpdateProgress(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// writeErrorFrom maps adapter errors into flat HTTP error bodies.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "unknown error")
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", common.Message(err))
	case errors.Is(err, common.ErrConflict):
		writeJSONError(w, http.StatusConflict, "conflict", common.Message(err))
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", common.Message(err))
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// writeJSONError writes one flat error body.
func writeJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: message, Code: code})
}

// writeJSON writes one JSON response body.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q,"code":"encode_error"}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeLenientJSONBody decodes an optional JSON object. Empty or malformed bodies
// decode as the zero value so field validation reports the problem instead.
// Oversized bodies are rejected with 413 and ok=false.
func decodeLenientJSONBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var zero T
	if r.Body == nil {
		return zero, true
	}
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return zero, false
		}
		return zero, true
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, true
	}
	return out, true
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status before delegating.
func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogging logs method, path, status and latency for each routed request.
func requestLogging(logger RequestLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("api request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).Round(time.Microsecond),
			)
		})
	}
}
