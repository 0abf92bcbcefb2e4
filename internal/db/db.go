package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ishaan812/contribsum/internal/config"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	mu          sync.Mutex
	connections = make(map[string]*sql.DB)
	// Custom path override set by the CLI --db flag
	customDBPath string
)

// SetDBPath sets a custom database path (overrides the default location)
func SetDBPath(path string) {
	customDBPath = path
}

// GetDB returns the database connection for the active path
func GetDB() (*sql.DB, error) {
	path := customDBPath
	if path == "" {
		path = config.GetDBPath()
	}
	return GetDBForPath(path)
}

// GetDBForPath returns a database connection for a specific path
func GetDBForPath(path string) (*sql.DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if db, exists := connections[path]; exists {
		return db, nil
	}

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := initDB(path)
	if err != nil {
		return nil, err
	}

	connections[path] = db
	return db, nil
}

// initDB initializes a DuckDB connection at the given path
func initDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DuckDB: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// CreateSchema creates all tables and indexes if they don't exist
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes all database connections
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	var lastErr error
	for path, db := range connections {
		if err := db.Close(); err != nil {
			lastErr = err
		}
		delete(connections, path)
	}

	return lastErr
}
