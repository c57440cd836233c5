// Package journal provides a durable record of interpretation runs.
//
// Each run stores the full wire payload alongside its outcome, so a run
// can be replayed against any driver later and a failed run can be
// diagnosed from its journal row alone (dispatched count, error text).
// SQLite with WAL mode; a single writer connection avoids lock churn.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one journaled interpretation run.
type Run struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Driver             string    `json:"driver"`
	Source             string    `json:"source,omitempty"`
	Payload            string    `json:"payload"`
	CommandsTotal      int       `json:"commands_total"`
	CommandsDispatched int       `json:"commands_dispatched"`
	Status             string    `json:"status"`
	Error              string    `json:"error,omitempty"`
}

// NewRunID returns a time-ordered unique run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Journal wraps the SQLite database holding run records.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal database at the given path. Pragmas
// and schema are applied automatically; the call is idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under sequential use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	_, err := db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)",
		currentSchemaVersion,
	)
	return err
}

// Record inserts a run row. Duplicate IDs are rejected, not silently
// ignored: every run has a fresh UUIDv7.
func (j *Journal) Record(ctx context.Context, run Run) error {
	if run.Status != StatusOK && run.Status != StatusFailed {
		return fmt.Errorf("record run: invalid status %q", run.Status)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, driver, source, payload, commands_total, commands_dispatched, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Driver,
		run.Source,
		run.Payload,
		run.CommandsTotal,
		run.CommandsDispatched,
		run.Status,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Get fetches one run by ID. Returns sql.ErrNoRows when absent.
func (j *Journal) Get(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, created_at, driver, source, payload, commands_total, commands_dispatched, status, error
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt string
	err := row.Scan(
		&run.ID, &createdAt, &run.Driver, &run.Source, &run.Payload,
		&run.CommandsTotal, &run.CommandsDispatched, &run.Status, &run.Error,
	)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return run, nil
}
