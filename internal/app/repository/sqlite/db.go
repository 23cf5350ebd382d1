package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"watchme-asr/internal/app/repository"
)

// DriverName is the database/sql driver registered by go-sqlite3
const DriverName = "sqlite3"

// Open opens (creating if needed) the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*repository.CommonDB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Concurrent workers share one writer connection.
	db.SetMaxOpenConns(1)

	store := repository.NewCommonDB(db, DriverName)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
