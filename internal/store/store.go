package store

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

// Store provides durable storage for obfuscation run history.
type Store struct {
	db *sql.DB
}

// Run is one recorded obfuscation run.
type Run struct {
	ID                string
	CreatedAt         time.Time
	Module            string
	FingerprintBefore string
	FingerprintAfter  string
	BogusBlocks       int
	NopsInserted      int
	LoopsWrapped      int
	StringsEncrypted  int
}

// NewRunID generates a time-sortable UUIDv7 run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Open creates or opens the history database at the given path, applying
// pragmas and the embedded schema. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY churn for this write-light workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteRun records one completed run. The write is idempotent per run ID.
func (s *Store) WriteRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("write run: empty ID")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, module,
			fingerprint_before, fingerprint_after,
			bogus_blocks, nops_inserted, loops_wrapped, strings_encrypted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Module,
		r.FingerprintBefore,
		r.FingerprintAfter,
		r.BogusBlocks,
		r.NopsInserted,
		r.LoopsWrapped,
		r.StringsEncrypted,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", r.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, module,
		       fingerprint_before, fingerprint_after,
		       bogus_blocks, nops_inserted, loops_wrapped, strings_encrypted
		FROM runs
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(
			&r.ID, &created, &r.Module,
			&r.FingerprintBefore, &r.FingerprintAfter,
			&r.BogusBlocks, &r.NopsInserted, &r.LoopsWrapped, &r.StringsEncrypted,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		r.CreatedAt = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
