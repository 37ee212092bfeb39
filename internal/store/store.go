package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ctxport/internal/workspace"
)

// DBFile is the database filename inside the workspace marker directory.
const DBFile = "context.db"

// DBPath returns the database location for a resolved workspace: the fixed
// marker subdirectory plus the database file.
func DBPath(ws string) string {
	return filepath.Join(ws, workspace.MarkerDir, DBFile)
}

// DB is the per-workspace context database.
type DB struct {
	db *sql.DB
	ws string
}

// Open opens (creating if needed) the context database for a workspace. The
// workspace path must already be resolved; the directory may still have
// vanished since resolution, in which case opening fails.
func Open(ws string) (*DB, error) {
	path := DBPath(ws)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &DB{db: db, ws: ws}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Workspace returns the workspace path this database belongs to.
func (s *DB) Workspace() string { return s.ws }

// Close closes the underlying connection.
func (s *DB) Close() error { return s.db.Close() }

func (s *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS product_context (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		content TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS active_context (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		content TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		summary TEXT NOT NULL,
		rationale TEXT,
		tags TEXT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS progress_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		status TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO product_context (id, content) VALUES (1, '{}');
	INSERT OR IGNORE INTO active_context (id, content) VALUES (1, '{}');
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DeleteSentinel removes a key when it appears as a value in a patch.
const DeleteSentinel = "__DELETE__"

func (s *DB) getContext(ctx context.Context, table string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT content FROM "+table+" WHERE id = 1").Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	content := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return content, nil
}

func (s *DB) setContext(ctx context.Context, table string, content map[string]any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "UPDATE "+table+" SET content = ? WHERE id = 1", string(raw))
	if err != nil {
		return fmt.Errorf("write %s: %w", table, err)
	}
	return nil
}

// patchContext merges patch into the stored document. A DeleteSentinel value
// removes the key outright.
func (s *DB) patchContext(ctx context.Context, table string, patch map[string]any) (map[string]any, error) {
	current, err := s.getContext(ctx, table)
	if err != nil {
		return nil, err
	}
	for key, value := range patch {
		if str, ok := value.(string); ok && str == DeleteSentinel {
			delete(current, key)
			continue
		}
		current[key] = value
	}
	if err := s.setContext(ctx, table, current); err != nil {
		return nil, err
	}
	return current, nil
}

// GetProductContext returns the long-lived project description document.
func (s *DB) GetProductContext(ctx context.Context) (map[string]any, error) {
	return s.getContext(ctx, "product_context")
}

// SetProductContext replaces the product context document.
func (s *DB) SetProductContext(ctx context.Context, content map[string]any) error {
	return s.setContext(ctx, "product_context", content)
}

// PatchProductContext merges keys into the product context document.
func (s *DB) PatchProductContext(ctx context.Context, patch map[string]any) (map[string]any, error) {
	return s.patchContext(ctx, "product_context", patch)
}

// GetActiveContext returns the current-session focus document.
func (s *DB) GetActiveContext(ctx context.Context) (map[string]any, error) {
	return s.getContext(ctx, "active_context")
}

// SetActiveContext replaces the active context document.
func (s *DB) SetActiveContext(ctx context.Context, content map[string]any) error {
	return s.setContext(ctx, "active_context", content)
}

// PatchActiveContext merges keys into the active context document.
func (s *DB) PatchActiveContext(ctx context.Context, patch map[string]any) (map[string]any, error) {
	return s.patchContext(ctx, "active_context", patch)
}

// Decision is one logged architectural or implementation decision.
type Decision struct {
	ID        int64     `json:"id"`
	Summary   string    `json:"summary"`
	Rationale string    `json:"rationale,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LogDecision appends a decision and returns it with its assigned id.
func (s *DB) LogDecision(ctx context.Context, d Decision) (Decision, error) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return Decision{}, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO decisions (summary, rationale, tags, timestamp) VALUES (?, ?, ?, ?)",
		d.Summary, d.Rationale, string(tags), d.Timestamp)
	if err != nil {
		return Decision{}, fmt.Errorf("log decision: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

// GetDecisions returns the most recent decisions, newest first. limit <= 0
// means no limit.
func (s *DB) GetDecisions(ctx context.Context, limit int) ([]Decision, error) {
	query := "SELECT id, summary, rationale, tags, timestamp FROM decisions ORDER BY timestamp DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var rationale, tags sql.NullString
		if err := rows.Scan(&d.ID, &d.Summary, &rationale, &tags, &d.Timestamp); err != nil {
			return nil, err
		}
		d.Rationale = rationale.String
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &d.Tags); err != nil {
				return nil, fmt.Errorf("decode decision tags: %w", err)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ProgressEntry is one task-status record.
type ProgressEntry struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// LogProgress appends a progress entry and returns it with its assigned id.
func (s *DB) LogProgress(ctx context.Context, p ProgressEntry) (ProgressEntry, error) {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO progress_entries (status, description, timestamp) VALUES (?, ?, ?)",
		p.Status, p.Description, p.Timestamp)
	if err != nil {
		return ProgressEntry{}, fmt.Errorf("log progress: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return ProgressEntry{}, err
	}
	return p, nil
}

// UpdateProgress changes the status (and optionally description) of an
// existing entry.
func (s *DB) UpdateProgress(ctx context.Context, id int64, status, description string) (ProgressEntry, error) {
	var err error
	if description != "" {
		_, err = s.db.ExecContext(ctx,
			"UPDATE progress_entries SET status = ?, description = ? WHERE id = ?", status, description, id)
	} else {
		_, err = s.db.ExecContext(ctx,
			"UPDATE progress_entries SET status = ? WHERE id = ?", status, id)
	}
	if err != nil {
		return ProgressEntry{}, fmt.Errorf("update progress %d: %w", id, err)
	}
	return s.getProgressByID(ctx, id)
}

func (s *DB) getProgressByID(ctx context.Context, id int64) (ProgressEntry, error) {
	var p ProgressEntry
	err := s.db.QueryRowContext(ctx,
		"SELECT id, status, description, timestamp FROM progress_entries WHERE id = ?", id).
		Scan(&p.ID, &p.Status, &p.Description, &p.Timestamp)
	if err == sql.ErrNoRows {
		return ProgressEntry{}, fmt.Errorf("progress entry %d not found", id)
	}
	if err != nil {
		return ProgressEntry{}, err
	}
	return p, nil
}

// GetProgress returns recent progress entries, newest first. limit <= 0
// means no limit.
func (s *DB) GetProgress(ctx context.Context, limit int) ([]ProgressEntry, error) {
	query := "SELECT id, status, description, timestamp FROM progress_entries ORDER BY timestamp DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressEntry
	for rows.Next() {
		var p ProgressEntry
		if err := rows.Scan(&p.ID, &p.Status, &p.Description, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Manager caches one open database per workspace path, mirroring the
// one-connection-per-workspace discipline of the storage layer.
type Manager struct {
	mu  sync.Mutex
	dbs map[string]*DB
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{dbs: make(map[string]*DB)}
}

// ForWorkspace returns the cached database for a resolved workspace path,
// opening it on first use.
func (m *Manager) ForWorkspace(ws string) (*DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if db, ok := m.dbs[ws]; ok {
		return db, nil
	}
	db, err := Open(ws)
	if err != nil {
		return nil, err
	}
	m.dbs[ws] = db
	return db, nil
}

// CloseAll closes every open database. Used during server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ws, db := range m.dbs {
		if err := db.Close(); err != nil {
			// Best effort; nothing actionable at shutdown.
			_ = err
		}
		delete(m.dbs, ws)
	}
}
