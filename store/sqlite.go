package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

const usageSchema = `
CREATE TABLE IF NOT EXISTS enrich_usage (
	operation      TEXT PRIMARY KEY,
	bucket         TEXT NOT NULL,
	requests       INTEGER NOT NULL,
	window_seconds INTEGER NOT NULL
)`

// recordStmt restarts the counter when the stored bucket differs from the
// incoming one, otherwise it adds one.
const recordStmt = `
INSERT INTO enrich_usage (operation, bucket, requests, window_seconds)
VALUES (?1, ?2, 1, ?3)
ON CONFLICT(operation) DO UPDATE SET
	requests = CASE WHEN enrich_usage.bucket = excluded.bucket
		THEN enrich_usage.requests + 1 ELSE 1 END,
	bucket = excluded.bucket,
	window_seconds = excluded.window_seconds
RETURNING requests`

// SQLiteStore persists usage counters in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn (a file path or ":memory:") and creates the usage
// table if needed.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("enrich/store: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(usageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("enrich/store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record upserts the counter row for key and returns its new value.
func (s *SQLiteStore) Record(ctx context.Context, key string, w Window) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, recordStmt, key, w.BucketKey, int64(w.Duration.Seconds())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("enrich/store: record %s: %w", key, err)
	}
	return n, nil
}

// Count returns the stored counter for key in the bucket of w.
func (s *SQLiteStore) Count(ctx context.Context, key string, w Window) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT requests FROM enrich_usage WHERE operation = ? AND bucket = ?`,
		key, w.BucketKey,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("enrich/store: count %s: %w", key, err)
	}
	return n, nil
}

// Reset deletes the counter row for key.
func (s *SQLiteStore) Reset(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enrich_usage WHERE operation = ?`, key)
	return err
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
