// Package sqlite implements the reference storage backend for Larder.
// Every registered model gets its own table following the standard
// record shape; declared data fields live in a JSON document column and
// are addressed with json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/engine"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// databaseFile is the SQLite file name inside the data directory.
const databaseFile = "larder.db"

// Backend implements engine.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database under config.DataDir, creating the
// directory if needed. Returns types.ErrAlreadyAttached on a second call.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, databaseFile))
	if err != nil {
		return err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent; operations after Detach
// return types.ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// conn returns the open database handle or types.ErrDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// EnsureTable creates the model's table and entity index if they do
// not exist. Identifiers are validated by the engine at registration.
func (b *Backend) EnsureTable(model types.Model) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(createTableDDL(model)); err != nil {
		return fmt.Errorf("creating table %s: %w", model.Name, err)
	}
	if _, err := db.Exec(createIndexDDL(model)); err != nil {
		return fmt.Errorf("creating index for %s: %w", model.Name, err)
	}
	return nil
}

// Select starts a read query against the model's table.
func (b *Backend) Select(model types.Model) engine.Selection {
	return &selection{backend: b, model: model, limit: -1, offset: -1}
}

// Insert writes the records in a single transaction; the batch fails
// or succeeds as a whole. The stored rows are read back via RETURNING.
func (b *Backend) Insert(ctx context.Context, model types.Model, records []*types.Record) ([]*types.Record, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING %s",
		model.Name, recordColumns, recordColumns)

	out := make([]*types.Record, 0, len(records))
	for _, r := range records {
		args, err := insertArgs(r)
		if err != nil {
			return nil, err
		}
		row := tx.QueryRowContext(ctx, stmt, args...)
		stored, err := scanRecord(row.Scan)
		if err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", model.Name, err)
		}
		out = append(out, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return out, nil
}

// Update applies the set document to every row matching the predicates
// and returns the updated rows.
func (b *Backend) Update(ctx context.Context, model types.Model, set map[string]any, preds []query.Predicate) ([]*types.Record, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	setClause, setArgs, err := compileSet(set)
	if err != nil {
		return nil, err
	}
	where, whereArgs := compilePredicates(model, preds)

	stmt := fmt.Sprintf("UPDATE %s SET %s", model.Name, setClause)
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += " RETURNING " + recordColumns

	rows, err := db.QueryContext(ctx, stmt, append(setArgs, whereArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", model.Name, err)
	}
	defer rows.Close()

	updated := make([]*types.Record, 0, 1)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning updated row: %w", err)
		}
		updated = append(updated, rec)
	}
	return updated, rows.Err()
}

// Count returns the number of rows matching the predicates.
func (b *Backend) Count(ctx context.Context, model types.Model, preds []query.Predicate) (int, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	where, args := compilePredicates(model, preds)

	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", model.Name)
	if where != "" {
		stmt += " WHERE " + where
	}

	var n int
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", model.Name, err)
	}
	return n, nil
}
