package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status values an entry moves through. Terminal states are launched
// and failed; posted entries are resumable.
const (
	StatusPending  = "pending"
	StatusPosted   = "posted"
	StatusLaunched = "launched"
	StatusFailed   = "failed"
)

// Entry is one recorded launch attempt.
type Entry struct {
	ID           int64
	Name         string
	Symbol       string
	Wallet       string
	PostID       string
	ClankerURL   string
	TokenAddress string
	Status       string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resumable reports whether the entry posted but never launched.
func (e Entry) Resumable() bool {
	return e.PostID != "" && e.Status != StatusLaunched
}

// schemaVersion is the current schema version. Bump this when the schema
// changes. Users will need to delete the journal database after schema
// changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const schemaSQL = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE launches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    symbol TEXT NOT NULL,
    wallet TEXT NOT NULL,
    post_id TEXT NOT NULL DEFAULT '',
    clanker_url TEXT NOT NULL DEFAULT '',
    token_address TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    error TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX idx_launches_post_id ON launches(post_id);
CREATE INDEX idx_launches_status ON launches(status);
`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Begin inserts a pending entry and returns its id.
func (s *Store) Begin(ctx context.Context, name, symbol, wallet string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO launches (name, symbol, wallet, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		name, symbol, wallet, StatusPending, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert launch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// MarkPosted records the post id once the launch post exists.
func (s *Store) MarkPosted(ctx context.Context, id int64, postID string) error {
	return s.update(ctx, id,
		`UPDATE launches SET post_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		postID, StatusPosted)
}

// MarkLaunched records a completed launch.
func (s *Store) MarkLaunched(ctx context.Context, id int64, clankerURL, tokenAddress string) error {
	return s.update(ctx, id,
		`UPDATE launches SET clanker_url = ?, token_address = ?, status = ?, error = '', updated_at = ? WHERE id = ?`,
		clankerURL, tokenAddress, StatusLaunched)
}

// MarkFailed records a failure reason. The post id, when present, stays
// so the launch can be resumed.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	return s.update(ctx, id,
		`UPDATE launches SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, reason)
}

// update runs an UPDATE whose last two placeholders are updated_at and id.
func (s *Store) update(ctx context.Context, id int64, query string, args ...any) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	args = append(args, now, id)
	if _, err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("update launch %d: %w", id, err)
	}
	return nil
}

// FindByPostID returns the id of the most recent entry for a post.
func (s *Store) FindByPostID(ctx context.Context, postID string) (int64, bool, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM launches WHERE post_id = ? ORDER BY id DESC LIMIT 1`, postID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find by post id: %w", err)
	}
	return id, true, nil
}

const entryColumns = `id, name, symbol, wallet, post_id, clanker_url, token_address, status, error, created_at, updated_at`

// GetByPostID fetches the most recent entry for a post, or nil.
func (s *Store) GetByPostID(ctx context.Context, postID string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM launches WHERE post_id = ? ORDER BY id DESC LIMIT 1`, postID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by post id: %w", err)
	}
	return entry, nil
}

// List returns the most recent entries, newest first. A limit of zero or
// less means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + entryColumns + ` FROM launches ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry     Entry
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&entry.ID, &entry.Name, &entry.Symbol, &entry.Wallet,
		&entry.PostID, &entry.ClankerURL, &entry.TokenAddress,
		&entry.Status, &entry.Error, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	entry.CreatedAt = parseTimestamp(createdAt)
	entry.UpdatedAt = parseTimestamp(updatedAt)
	return &entry, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
