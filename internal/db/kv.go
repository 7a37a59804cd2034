package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KV is a key/value view of editor_storage restricted to one scope
type KV struct {
	database *sql.DB
	scope    string
}

// NewKV creates a KV for one browsing session scope
func NewKV(database *sql.DB, scope string) *KV {
	return &KV{database: database, scope: scope}
}

// Get returns the value stored for key
func (kv *KV) Get(key string) (string, bool, error) {
	var value string
	err := kv.database.QueryRow(
		`SELECT value FROM editor_storage WHERE scope = ? AND key = ?`,
		kv.scope, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value for key, replacing any previous value
func (kv *KV) Set(key, value string) error {
	query := `INSERT INTO editor_storage (scope, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := kv.database.Exec(query, kv.scope, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored
func (kv *KV) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, kv.scope)
	for _, k := range keys {
		args = append(args, k)
	}

	query := `DELETE FROM editor_storage WHERE scope = ? AND key IN (` + placeholders + `)`
	if _, err := kv.database.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
