package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "watchme-asr/internal/app/errors"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
)

func openTestDB(t *testing.T) *repository.CommonDB {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "asr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func key(block string) model.WorkItemKey {
	return model.WorkItemKey{DeviceID: "D1", Date: "2025-08-26", TimeBlock: block}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asr.db")
	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, DriverName, second.DriverName())
	require.NoError(t, second.Close())
}

func TestUpdateStatusUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	require.NoError(t, store.EnsurePending(ctx, key("09-00")))
	item, err := store.Get(ctx, key("09-00"))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, model.StatusPending, item.Status)
	assert.Nil(t, item.Transcription)

	text := "こんにちは"
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{
		Key: key("09-00"), Status: model.StatusCompleted, Transcription: &text, Provider: "azure", Model: "speech-short-audio",
	}))
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{
		Key: key("09-30"), Status: model.StatusQuotaExceeded, Reason: "quota", Provider: "azure",
	}))

	item, err = store.Get(ctx, key("09-00"))
	require.NoError(t, err)
	require.NotNil(t, item.Transcription)
	assert.Equal(t, "こんにちは", *item.Transcription)
	assert.Equal(t, model.StatusCompleted, item.Status)
	assert.Equal(t, "azure", item.Provider)
	assert.False(t, item.CreatedAt.IsZero())

	// EnsurePending never downgrades an existing row.
	require.NoError(t, store.EnsurePending(ctx, key("09-00")))
	item, err = store.Get(ctx, key("09-00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, item.Status)

	// A later attempt overwrites the previous terminal state.
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{Key: key("09-00"), Status: model.StatusFailed, Reason: "re-run"}))
	item, err = store.Get(ctx, key("09-00"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, item.Status)
	assert.Nil(t, item.Transcription)
	assert.Equal(t, "re-run", item.Reason)
}

func TestGetMissingReturnsNil(t *testing.T) {
	item, err := openTestDB(t).Get(context.Background(), key("23-30"))
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestListPendingReturnsRetryEligible(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)
	text := model.NoSpeechSentinel

	require.NoError(t, store.EnsurePending(ctx, key("10-00")))
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{Key: key("09-00"), Status: model.StatusCompleted, Transcription: &text}))
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{Key: key("09-30"), Status: model.StatusQuotaExceeded}))
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{Key: key("08-30"), Status: model.StatusFailed}))
	require.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{Key: key("11-00"), Status: model.StatusSkipped, Reason: "sleep"}))
	require.NoError(t, store.EnsurePending(ctx, model.WorkItemKey{DeviceID: "D2", Date: "2025-08-26", TimeBlock: "09-00"}))

	pending, err := store.ListPending(ctx, "D1", "2025-08-26")
	require.NoError(t, err)
	blocks := make([]string, 0, len(pending))
	for _, item := range pending {
		blocks = append(blocks, item.Key.TimeBlock)
	}
	assert.Equal(t, []string{"08-30", "09-30", "10-00"}, blocks)

	all, err := store.List(ctx, "D1", "2025-08-26")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestUpdateStatusRejectsBrokenInvariant(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)
	empty := ""

	err := store.UpdateStatus(ctx, model.StatusUpdate{Key: key("09-00"), Status: model.StatusCompleted, Transcription: &empty})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTranscription)

	err = store.UpdateStatus(ctx, model.StatusUpdate{Key: key("09-00"), Status: model.StatusProcessing})
	assert.Error(t, err)

	item, err := store.Get(ctx, key("09-00"))
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			text := fmt.Sprintf("hour %d", hour)
			assert.NoError(t, store.UpdateStatus(ctx, model.StatusUpdate{
				Key:           key(fmt.Sprintf("%02d-00", hour)),
				Status:        model.StatusCompleted,
				Transcription: &text,
			}))
		}(i)
	}
	wg.Wait()

	all, err := store.List(ctx, "D1", "2025-08-26")
	require.NoError(t, err)
	assert.Len(t, all, 24)
	for _, item := range all {
		require.NotNil(t, item.Transcription)
		assert.NotEmpty(t, *item.Transcription)
	}
}
