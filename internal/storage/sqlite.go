package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Supported storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

const selectionSchema = `
CREATE TABLE IF NOT EXISTS selection_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	weight REAL NOT NULL,
	auxiliary_json TEXT NOT NULL DEFAULT '{}',
	source TEXT NOT NULL DEFAULT '',
	added_at TEXT NOT NULL
)`

// SQLiteStorage persists the selection in a SQLite database so it survives restarts.
type SQLiteStorage struct {
	db *sql.DB
}

// Compile-time checks that both backends implement Storage
var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)

// Open returns the storage backend for driver.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStorage(), nil
	case DriverSQLite:
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// NewSQLiteStorage opens (creating if needed) the database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite storage requires a path")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps writes serialised and in-memory databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(selectionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// List returns the selection in insertion order.
func (s *SQLiteStorage) List() ([]Entry, error) {
	rows, err := s.db.Query(`
	SELECT id, label, weight, auxiliary_json, source, added_at
	FROM selection_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query selection: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			entry   Entry
			auxJSON string
			addedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Label, &entry.Weight, &auxJSON, &entry.Source, &addedAt); err != nil {
			return nil, fmt.Errorf("scan selection entry: %w", err)
		}
		if err := json.Unmarshal([]byte(auxJSON), &entry.Auxiliary); err != nil {
			return nil, fmt.Errorf("decode auxiliary for %s: %w", entry.ID, err)
		}
		if len(entry.Auxiliary) == 0 {
			entry.Auxiliary = nil
		}
		if entry.AddedAt, err = time.Parse(time.RFC3339Nano, addedAt); err != nil {
			return nil, fmt.Errorf("decode added_at for %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Add validates and inserts entries in a single transaction.
func (s *SQLiteStorage) Add(entries []Entry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(`
	INSERT INTO selection_entries (id, label, weight, auxiliary_json, source, added_at)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		auxJSON := []byte("{}")
		if len(entry.Auxiliary) > 0 {
			if auxJSON, err = json.Marshal(entry.Auxiliary); err != nil {
				return fmt.Errorf("encode auxiliary for %s: %w", entry.ID, err)
			}
		}
		if _, err := stmt.Exec(entry.ID, entry.Label, entry.Weight, string(auxJSON), entry.Source,
			entry.AddedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert selection entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Remove deletes the entry with the given ID.
func (s *SQLiteStorage) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM selection_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Clear empties the selection.
func (s *SQLiteStorage) Clear() error {
	_, err := s.db.Exec(`DELETE FROM selection_entries`)
	return err
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
