package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "watchme-asr/internal/app/errors"
	"watchme-asr/internal/app/model"
)

// CommonDB provides shared database functionality
type CommonDB struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
	now          func() time.Time
}

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

var _ WorkItemDAO = (*CommonDB)(nil)

const workItemColumns = `device_id, local_date, time_block, status, transcription,
	reason, provider, model, created_at, updated_at`

// NewCommonDB creates a new CommonDB instance
func NewCommonDB(db *sql.DB, driverName string) *CommonDB {
	var placeholders PlaceholderFunc

	switch driverName {
	case "postgres":
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	return &CommonDB{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// DriverName returns the SQL dialect in use
func (c *CommonDB) DriverName() string {
	return c.driverName
}

// Ping verifies the connection
func (c *CommonDB) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseConnection, err.Error())
	}
	return nil
}

// params renders n placeholders starting at from
func (c *CommonDB) params(from, n int) string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = c.placeholders(from + i)
	}
	return strings.Join(out, ", ")
}

// ListPending returns pending, failed and quota_exceeded items
func (c *CommonDB) ListPending(ctx context.Context, deviceID, date string) ([]model.WorkItem, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM work_items
		 WHERE device_id = %s AND local_date = %s AND status IN (%s)
		 ORDER BY time_block`,
		workItemColumns, c.placeholders(1), c.placeholders(2), c.params(3, 3),
	)
	return c.queryItems(ctx, query, deviceID, date,
		string(model.StatusPending), string(model.StatusFailed), string(model.StatusQuotaExceeded))
}

// List returns all items of a device and date
func (c *CommonDB) List(ctx context.Context, deviceID, date string) ([]model.WorkItem, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM work_items
		 WHERE device_id = %s AND local_date = %s
		 ORDER BY time_block`,
		workItemColumns, c.placeholders(1), c.placeholders(2),
	)
	return c.queryItems(ctx, query, deviceID, date)
}

// Get returns a single item or nil when absent
func (c *CommonDB) Get(ctx context.Context, key model.WorkItemKey) (*model.WorkItem, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM work_items
		 WHERE device_id = %s AND local_date = %s AND time_block = %s`,
		workItemColumns, c.placeholders(1), c.placeholders(2), c.placeholders(3),
	)
	items, err := c.queryItems(ctx, query, key.DeviceID, key.Date, key.TimeBlock)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// UpdateStatus writes the latest state of one item, creating the row if needed
func (c *CommonDB) UpdateStatus(ctx context.Context, update model.StatusUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	now := c.now()
	var transcription sql.NullString
	if update.Transcription != nil {
		transcription = sql.NullString{String: *update.Transcription, Valid: true}
	}

	query := fmt.Sprintf(
		`INSERT INTO work_items (%s)
		 VALUES (%s)
		 ON CONFLICT (device_id, local_date, time_block) DO UPDATE SET
			status = excluded.status,
			transcription = excluded.transcription,
			reason = excluded.reason,
			provider = excluded.provider,
			model = excluded.model,
			updated_at = excluded.updated_at`,
		workItemColumns, c.params(1, 10),
	)

	_, err := c.db.ExecContext(ctx, query,
		update.Key.DeviceID, update.Key.Date, update.Key.TimeBlock,
		string(update.Status), transcription,
		update.Reason, update.Provider, update.Model,
		now, now,
	)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrUpdateFailed, "%s: %v", update.Key, err)
	}
	return nil
}

// EnsurePending inserts a pending row when the key is new
func (c *CommonDB) EnsurePending(ctx context.Context, key model.WorkItemKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	now := c.now()
	query := fmt.Sprintf(
		`INSERT INTO work_items (%s)
		 VALUES (%s)
		 ON CONFLICT (device_id, local_date, time_block) DO NOTHING`,
		workItemColumns, c.params(1, 10),
	)
	_, err := c.db.ExecContext(ctx, query,
		key.DeviceID, key.Date, key.TimeBlock,
		string(model.StatusPending), sql.NullString{},
		"", "", "", now, now,
	)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrUpdateFailed, "%s: %v", key, err)
	}
	return nil
}

func (c *CommonDB) queryItems(ctx context.Context, query string, args ...interface{}) ([]model.WorkItem, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQueryFailed, err.Error())
	}
	defer rows.Close()

	var items []model.WorkItem
	for rows.Next() {
		var (
			item          model.WorkItem
			status        string
			transcription sql.NullString
		)
		err := rows.Scan(
			&item.Key.DeviceID,
			&item.Key.Date,
			&item.Key.TimeBlock,
			&status,
			&transcription,
			&item.Reason,
			&item.Provider,
			&item.Model,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrScanFailed, err.Error())
		}
		item.Status = model.Status(status)
		if transcription.Valid {
			text := transcription.String
			item.Transcription = &text
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQueryFailed, err.Error())
	}

	return items, nil
}

// Close closes the database connection
func (c *CommonDB) Close() error {
	return c.db.Close()
}
