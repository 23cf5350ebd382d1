package repository

import (
	"context"

	"watchme-asr/internal/app/model"
)

// WorkItemDAO is the status store of transcription work items.
type WorkItemDAO interface {
	Close() error

	// ListPending returns the retry-eligible items of a device and date, ordered by time block.
	ListPending(ctx context.Context, deviceID, date string) ([]model.WorkItem, error)

	// List returns every item of a device and date, ordered by time block.
	List(ctx context.Context, deviceID, date string) ([]model.WorkItem, error)

	// Get returns the item for key, or nil when no row exists.
	Get(ctx context.Context, key model.WorkItemKey) (*model.WorkItem, error)

	// UpdateStatus upserts the latest-attempt state of one item.
	UpdateStatus(ctx context.Context, update model.StatusUpdate) error

	// EnsurePending creates a pending row unless one already exists.
	EnsurePending(ctx context.Context, key model.WorkItemKey) error
}
