// Package localstore provides namespaced key/value persistence over SQLite.
// Values are stored as JSON.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/vmunix/reelshelf/internal/migrations"
)

// Namespaces used across the application.
const (
	NamespaceCache    = "cache"
	NamespaceProfiles = "profiles"
	NamespaceSettings = "settings"
)

// ProgressNamespace returns the namespace holding a profile's watch progress.
func ProgressNamespace(profile string) string {
	return "progress:" + profile
}

// Record is one stored value.
type Record struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the record value into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.Value, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.Key, err)
	}
	return nil
}

// Store provides access to the kv_store table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a store over an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens the SQLite database at path, creating its directory, and applies
// the schema. ":memory:" is accepted for ephemeral stores.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: SQLite serializes writers and :memory: is per-connection.
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Get decodes the value stored under (namespace, key) into v.
// Returns ErrNotFound if there is none.
func (s *Store) Get(ctx context.Context, namespace, key string, v any) error {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv_store WHERE namespace = ? AND key = ?", namespace, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Put stores v as JSON under (namespace, key), replacing any existing value.
func (s *Store) Put(ctx context.Context, namespace, key string, v any) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_store (namespace, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, string(data), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// List returns every record in namespace ordered by key.
func (s *Store) List(ctx context.Context, namespace string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, updated_at FROM kv_store WHERE namespace = ? ORDER BY key", namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var raw string
		if err := rows.Scan(&r.Key, &raw, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", namespace, err)
		}
		r.Value = json.RawMessage(raw)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes one record. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE namespace = ? AND key = ?", namespace, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// DeleteNamespace removes every record in namespace and returns the count.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE namespace = ?", namespace)
	if err != nil {
		return 0, fmt.Errorf("delete namespace %s: %w", namespace, err)
	}
	return result.RowsAffected()
}

// DeletePrefix removes records in namespace whose key starts with prefix.
func (s *Store) DeletePrefix(ctx context.Context, namespace, prefix string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_store WHERE namespace = ? AND substr(key, 1, ?) = ?`,
		namespace, utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("delete prefix %s/%s: %w", namespace, prefix, err)
	}
	return result.RowsAffected()
}

// Namespaces lists the distinct namespaces starting with prefix.
func (s *Store) Namespaces(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT namespace FROM kv_store ORDER BY namespace")
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("scan namespace: %w", err)
		}
		if strings.HasPrefix(ns, prefix) {
			out = append(out, ns)
		}
	}
	return out, rows.Err()
}
