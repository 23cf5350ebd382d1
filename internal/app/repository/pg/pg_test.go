package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "watchme-asr/internal/app/errors"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
)

func newMock(t *testing.T) (*repository.CommonDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDB(db), mock
}

var columns = []string{"device_id", "local_date", "time_block", "status", "transcription",
	"reason", "provider", "model", "created_at", "updated_at"}

func TestPostgresDAO_Interface(t *testing.T) {
	var _ repository.WorkItemDAO = NewPostgresDB(nil)
}

func TestUpdateStatusUsesDollarPlaceholders(t *testing.T) {
	store, mock := newMock(t)
	text := "こんにちは"

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (device_id, local_date, time_block) DO UPDATE SET")).
		WithArgs("D1", "2025-08-26", "09-00", "completed", "こんにちは", "", "azure", "speech-short-audio",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateStatus(context.Background(), model.StatusUpdate{
		Key:           model.WorkItemKey{DeviceID: "D1", Date: "2025-08-26", TimeBlock: "09-00"},
		Status:        model.StatusCompleted,
		Transcription: &text,
		Provider:      "azure",
		Model:         "speech-short-audio",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWrapsDriverErrors(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO work_items").WillReturnError(errors.New("connection refused"))

	err := store.UpdateStatus(context.Background(), model.StatusUpdate{
		Key:    model.WorkItemKey{DeviceID: "D1", Date: "2025-08-26", TimeBlock: "09-30"},
		Status: model.StatusQuotaExceeded,
	})
	assert.ErrorIs(t, err, apperrors.ErrUpdateFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingQuery(t *testing.T) {
	store, mock := newMock(t)
	now := time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow("D1", "2025-08-26", "09-00", "pending", nil, "", "", "", now, now).
		AddRow("D1", "2025-08-26", "09-30", "quota_exceeded", nil, "quota", "azure", "", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE device_id = $1 AND local_date = $2 AND status IN ($3, $4, $5)")).
		WithArgs("D1", "2025-08-26", "pending", "failed", "quota_exceeded").
		WillReturnRows(rows)

	items, err := store.ListPending(context.Background(), "D1", "2025-08-26")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.StatusQuotaExceeded, items[1].Status)
	assert.Nil(t, items[1].Transcription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScansTranscription(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("AND time_block = $3")).
		WithArgs("D1", "2025-08-26", "09-00").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("D1", "2025-08-26", "09-00", "completed", model.NoSpeechSentinel, "", "groq", "whisper-large-v3-turbo", now, now))

	item, err := store.Get(context.Background(), model.WorkItemKey{DeviceID: "D1", Date: "2025-08-26", TimeBlock: "09-00"})
	require.NoError(t, err)
	require.NotNil(t, item)
	require.NotNil(t, item.Transcription)
	assert.Equal(t, model.NoSpeechSentinel, *item.Transcription)
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("timeout"))

	_, err := store.List(context.Background(), "D1", "2025-08-26")
	assert.ErrorIs(t, err, apperrors.ErrQueryFailed)
}

func TestScanErrorsAreWrapped(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"device_id"}).AddRow("D1"))

	_, err := store.List(context.Background(), "D1", "2025-08-26")
	assert.ErrorIs(t, err, apperrors.ErrScanFailed)
}

func TestMigrateAndPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresDB(db)

	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS work_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_work_items_status").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.ErrorIs(t, store.Ping(context.Background()), apperrors.ErrDatabaseConnection)
}
