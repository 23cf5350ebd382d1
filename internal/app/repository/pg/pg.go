package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"watchme-asr/internal/app/repository"
)

// DriverName is the database/sql driver registered by lib/pq
const DriverName = "postgres"

// NewPostgresDB wraps an open connection pool.
func NewPostgresDB(db *sql.DB) *repository.CommonDB {
	return repository.NewCommonDB(db, DriverName)
}

// Open connects to PostgreSQL, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*repository.CommonDB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	store := NewPostgresDB(db)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
