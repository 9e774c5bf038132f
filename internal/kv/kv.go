// Package kv persists extension state as named buckets, each holding a
// single JSON document, backed by a SQLite database. There are no
// cross-bucket transactions: a read-modify-write sequence over a bucket is
// not atomic with respect to other writers, which is accepted for
// single-user usage. The daemon's instance lock keeps one writer per store.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joshnesbit/quietsend/internal/model"
)

// Bucket names for the three state records.
const (
	BucketContacts    = "contacts"
	BucketSavedLinks  = "savedLinks"
	BucketPreferences = "preferences"
)

// Store wraps the SQLite connection holding the bucket table.
type Store struct {
	*sql.DB
}

// Open creates a SQLite connection with WAL mode and a busy timeout.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &model.StoreError{Op: "open", Err: err}
	}
	// Verify connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &model.StoreError{Op: "ping", Err: err}
	}
	return &Store{db}, nil
}

// Get unmarshals the bucket's document into dest. Returns false when the
// bucket has never been written; dest is left untouched so the caller's
// zero value serves as the default.
func (s *Store) Get(ctx context.Context, bucket string, dest any) (bool, error) {
	var raw []byte
	err := s.QueryRowContext(ctx, `SELECT value FROM buckets WHERE name = ?`, bucket).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &model.StoreError{Op: "get", Bucket: bucket, Err: err}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, &model.StoreError{Op: "decode", Bucket: bucket, Err: err}
	}
	return true, nil
}

// Put replaces the bucket's document with the JSON encoding of value.
func (s *Store) Put(ctx context.Context, bucket string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &model.StoreError{Op: "encode", Bucket: bucket, Err: err}
	}
	now := time.Now().UnixMilli()
	_, err = s.ExecContext(ctx, `
		INSERT INTO buckets (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		bucket, raw, now)
	if err != nil {
		return &model.StoreError{Op: "put", Bucket: bucket, Err: err}
	}
	return nil
}
