package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the process-wide database opened by InitDatabase
var DB *sql.DB

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// InitDatabase initializes the SQLite database and creates tables
func InitDatabase(dbPath string) error {
	database, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = database
	return nil
}

// Open opens a SQLite database at dbPath and ensures the schema exists
func Open(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_foreign_keys=1&_busy_timeout=5000"
	if dbPath != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "&_journal_mode=WAL"
	}

	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		// every connection to :memory: is a separate database
		database.SetMaxOpenConns(1)
	}

	// Test connection
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return database, nil
}

// createTables creates all necessary tables
func createTables(database *sql.DB) error {
	createStorageTable := `
	CREATE TABLE IF NOT EXISTS editor_storage (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (scope, key)
	);`

	if _, err := database.Exec(createStorageTable); err != nil {
		return fmt.Errorf("failed to create editor_storage table: %w", err)
	}

	createSessionsTable := `
	CREATE TABLE IF NOT EXISTS deck_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := database.Exec(createSessionsTable); err != nil {
		return fmt.Errorf("failed to create deck_sessions table: %w", err)
	}

	// Index on updated_at for retention cleanup
	createIndex := `CREATE INDEX IF NOT EXISTS idx_editor_storage_updated ON editor_storage(updated_at);`
	if _, err := database.Exec(createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
