package repository

import (
	"context"
	"fmt"
)

// The same DDL runs on SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS work_items (
		device_id     TEXT NOT NULL,
		local_date    TEXT NOT NULL,
		time_block    TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'pending',
		transcription TEXT,
		reason        TEXT NOT NULL DEFAULT '',
		provider      TEXT NOT NULL DEFAULT '',
		model         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (device_id, local_date, time_block),
		CHECK (status IN ('pending', 'completed', 'failed', 'quota_exceeded', 'skipped')),
		CHECK ((status = 'completed') = (transcription IS NOT NULL AND transcription <> ''))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items (device_id, local_date, status)`,
}

// Migrate creates the work_items table and its indexes when missing
func (c *CommonDB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", c.driverName, err)
		}
	}
	return nil
}
