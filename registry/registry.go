// Package registry stores instance records in a SQLite database.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/leocov-dev/launchwiz/core"
)

// FileName is the database file inside the data directory.
const FileName = "instances.db"

var (
	ErrNotFound = errors.New("instance not found")
	ErrExists   = errors.New("instance already exists")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

const schema = `
CREATE TABLE IF NOT EXISTS instances (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	game_version TEXT NOT NULL,
	loader TEXT NOT NULL,
	loader_version TEXT NOT NULL DEFAULT '',
	java_mode TEXT NOT NULL DEFAULT 'auto',
	java_path TEXT NOT NULL DEFAULT '',
	dir TEXT NOT NULL,
	game_dir TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Registry hands instance records to the engine.
type Registry struct {
	db      *sql.DB
	mu      sync.RWMutex
	dataDir string
}

// Open creates or opens the registry in dataDir. New instances live under
// <dataDir>/instances unless they name their own directory.
func Open(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create registry schema: %w", err)
	}
	return &Registry{db: db, dataDir: dataDir}, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// ValidID reports whether id can name an instance directory.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Validate normalizes an instance record and rejects ones the engine cannot run.
// A record without an id gets one derived from its name.
func Validate(inst *core.Instance) error {
	inst.ID = strings.TrimSpace(inst.ID)
	if inst.ID == "" {
		inst.ID = core.SlugifyName(inst.Name)
	}
	if !idPattern.MatchString(inst.ID) {
		return fmt.Errorf("invalid instance id %q: use lowercase letters, digits, '.', '_' and '-'", inst.ID)
	}
	if strings.TrimSpace(inst.GameVersion) == "" {
		return fmt.Errorf("instance %s has no game version", inst.ID)
	}
	if inst.Loader == "" {
		inst.Loader = string(core.LoaderVanilla)
	}
	kind, err := core.ParseLoaderKind(inst.Loader)
	if err != nil {
		return err
	}
	inst.Loader = string(kind)
	if kind == core.LoaderVanilla {
		inst.LoaderVersion = ""
	}
	switch inst.JavaMode {
	case "":
		inst.JavaMode = core.JavaAuto
	case core.JavaAuto, core.JavaSystem:
	case core.JavaCustom:
		if inst.JavaPath == "" {
			return fmt.Errorf("instance %s uses a custom Java but has no Java path", inst.ID)
		}
	default:
		return fmt.Errorf("unknown Java mode %q", inst.JavaMode)
	}
	if inst.Name == "" {
		inst.Name = inst.ID
	}
	return nil
}

// Add validates and stores a new instance, filling in its directory.
func (r *Registry) Add(ctx context.Context, inst core.Instance) (core.Instance, error) {
	if err := Validate(&inst); err != nil {
		return inst, err
	}
	if inst.Dir == "" {
		inst.Dir = filepath.Join(r.dataDir, "instances", inst.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM instances WHERE id = ?`, inst.ID).Scan(&n); err != nil {
		return inst, fmt.Errorf("failed to query registry: %w", err)
	}
	if n > 0 {
		return inst, fmt.Errorf("%s: %w", inst.ID, ErrExists)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO instances (id, name, game_version, loader, loader_version, java_mode, java_path, dir, game_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.Name, inst.GameVersion, inst.Loader, inst.LoaderVersion,
		string(inst.JavaMode), inst.JavaPath, inst.Dir, inst.GameDir)
	if err != nil {
		return inst, fmt.Errorf("failed to store instance: %w", err)
	}
	return inst, nil
}

const selectColumns = `SELECT id, name, game_version, loader, loader_version, java_mode, java_path, dir, game_dir FROM instances`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(s scanner) (core.Instance, error) {
	var inst core.Instance
	var mode string
	err := s.Scan(&inst.ID, &inst.Name, &inst.GameVersion, &inst.Loader, &inst.LoaderVersion,
		&mode, &inst.JavaPath, &inst.Dir, &inst.GameDir)
	inst.JavaMode = core.JavaMode(mode)
	return inst, err
}

func (r *Registry) Get(ctx context.Context, id string) (core.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, err := scanInstance(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return inst, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return inst, fmt.Errorf("failed to load instance %s: %w", id, err)
	}
	return inst, nil
}

// List returns every instance ordered by id.
func (r *Registry) List(ctx context.Context) ([]core.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var out []core.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Remove deletes the record. The instance directory is left to the caller.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove instance %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
