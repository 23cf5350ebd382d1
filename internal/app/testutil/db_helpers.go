package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
	"watchme-asr/internal/app/repository/sqlite"
)

// SetupTestStore opens a migrated SQLite store in a temp dir, closed on cleanup
func SetupTestStore(t *testing.T) *repository.CommonDB {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "asr_test.db"))
	require.NoError(t, err, "failed to open test store")
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close test store: %v", err)
		}
	})
	return store
}

// SeedPending creates pending rows for the given time blocks
func SeedPending(t *testing.T, dao repository.WorkItemDAO, deviceID, date string, blocks ...string) {
	t.Helper()
	for _, block := range blocks {
		require.NoError(t, dao.EnsurePending(context.Background(), Key(deviceID, date, block)))
	}
}

// RequireStatus asserts the persisted status and transcription of one key
func RequireStatus(t *testing.T, dao repository.WorkItemDAO, key model.WorkItemKey, status model.Status, transcription *string) {
	t.Helper()
	item, err := dao.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, item, "no row for %s", key)
	require.Equal(t, status, item.Status, "status of %s", key)
	if transcription == nil {
		require.Nil(t, item.Transcription, "transcription of %s", key)
		return
	}
	require.NotNil(t, item.Transcription, "transcription of %s", key)
	require.Equal(t, *transcription, *item.Transcription)
}

// Text returns a pointer to s
func Text(s string) *string {
	return &s
}
