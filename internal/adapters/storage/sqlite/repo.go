package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evanschultz/tally/internal/app"
	"github.com/evanschultz/tally/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines the registered modernc driver name.
const driverName = "sqlite"

// memorySeq keeps in-memory databases opened by one process apart.
var memorySeq atomic.Int64

// Repository stores project aggregates in one sqlite table.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the database file at path and migrates it.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:tally-mem-%d?mode=memory&cache=shared", memorySeq.Add(1))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newRepository(db)
}

// newRepository wraps db and runs migrations.
func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema when missing.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY,
			backlogs_json TEXT NOT NULL DEFAULT '[]',
			todos_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateProject inserts a new project row. A taken name reports app.ErrConflict.
func (r *Repository) CreateProject(ctx context.Context, p domain.Project) error {
	backlogsJSON, todosJSON, err := encodeProject(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects(name, backlogs_json, todos_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, backlogsJSON, todosJSON, ts(p.CreatedAt), ts(p.UpdatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create project %q: %w", p.Name, app.ErrConflict)
	}
	return err
}

// UpdateProject replaces the backlog and to-do payloads of one project.
func (r *Repository) UpdateProject(ctx context.Context, p domain.Project) error {
	backlogsJSON, todosJSON, err := encodeProject(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET backlogs_json = ?, todos_json = ?, updated_at = ?
		WHERE name = ?
	`, backlogsJSON, todosJSON, ts(p.UpdatedAt), p.Name)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetProject returns one project by name.
func (r *Repository) GetProject(ctx context.Context, name string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, backlogs_json, todos_json, created_at, updated_at
		FROM projects
		WHERE name = ?
	`, name)
	return scanProject(row)
}

// ListProjects lists projects in creation order.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, backlogs_json, todos_json, created_at, updated_at
		FROM projects
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes one project row.
func (r *Repository) DeleteProject(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanProject decodes one project row.
func scanProject(s scanner) (domain.Project, error) {
	var (
		p           domain.Project
		backlogsRaw string
		todosRaw    string
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(&p.Name, &backlogsRaw, &todosRaw, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	if err := decodeJSONColumn(backlogsRaw, &p.Backlogs); err != nil {
		return domain.Project{}, fmt.Errorf("decode project backlogs_json: %w", err)
	}
	if err := decodeJSONColumn(todosRaw, &p.Todos); err != nil {
		return domain.Project{}, fmt.Errorf("decode project todos_json: %w", err)
	}
	if p.Backlogs == nil {
		p.Backlogs = []string{}
	}
	if p.Todos == nil {
		p.Todos = []domain.Todo{}
	}
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	return p, nil
}

// encodeProject serializes the JSON columns of p.
func encodeProject(p domain.Project) (string, string, error) {
	backlogs := p.Backlogs
	if backlogs == nil {
		backlogs = []string{}
	}
	todos := p.Todos
	if todos == nil {
		todos = []domain.Todo{}
	}
	backlogsJSON, err := json.Marshal(backlogs)
	if err != nil {
		return "", "", fmt.Errorf("encode project backlogs: %w", err)
	}
	todosJSON, err := json.Marshal(todos)
	if err != nil {
		return "", "", fmt.Errorf("encode project todos: %w", err)
	}
	return string(backlogsJSON), string(todosJSON), nil
}

// decodeJSONColumn treats blank columns as empty arrays.
func decodeJSONColumn(raw string, out any) error {
	if strings.TrimSpace(raw) == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), out)
}

// translateNoRows maps a zero-row write onto app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts formats timestamps for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a stored timestamp, returning the zero time when malformed.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// isUniqueViolation reports whether err is a primary key or unique constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "constraint failed: unique")
}
