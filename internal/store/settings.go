package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// WriteInfo describes the most recent settings write.
type WriteInfo struct {
	Op        string
	Keys      []string
	CreatedAt time.Time
}

// LoadSettings returns every stored settings value keyed by name. Values are
// raw JSON documents.
func (db *DB) LoadSettings() (map[string][]byte, error) {
	rows, err := db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = []byte(value)
	}
	return values, rows.Err()
}

// SaveSettings merge-writes values: listed keys are upserted, every other key
// is left untouched.
func (db *DB) SaveSettings(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertSettings(tx, values); err != nil {
		return err
	}
	if err := logWrite(tx, "save", values); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

// ReplaceSettings drops every stored key and writes values in its place.
func (db *DB) ReplaceSettings(values map[string][]byte) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	if err := upsertSettings(tx, values); err != nil {
		return err
	}
	if err := logWrite(tx, "replace", values); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

// LastSettingsWrite returns the most recent write, or nil if nothing was ever
// written.
func (db *DB) LastSettingsWrite() (*WriteInfo, error) {
	var (
		op, keys string
		at       int64
	)
	err := db.QueryRow(`SELECT op, keys, created_at FROM settings_log ORDER BY id DESC LIMIT 1`).Scan(&op, &keys, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info := &WriteInfo{Op: op, CreatedAt: time.UnixMilli(at)}
	if keys != "" {
		info.Keys = strings.Split(keys, ",")
	}
	return info, nil
}

func upsertSettings(tx *sql.Tx, values map[string][]byte) error {
	now := time.Now().UnixMilli()
	for key, value := range values {
		if _, err := tx.Exec(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(value), now); err != nil {
			return fmt.Errorf("upsert setting %q: %w", key, err)
		}
	}
	return nil
}

func logWrite(tx *sql.Tx, op string, values map[string][]byte) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	_, err := tx.Exec(`INSERT INTO settings_log (op, keys, created_at) VALUES (?, ?, ?)`,
		op, strings.Join(keys, ","), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("log settings write: %w", err)
	}
	return nil
}
