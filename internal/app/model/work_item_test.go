package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkItemKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     WorkItemKey
		wantErr bool
	}{
		{"valid", WorkItemKey{"D1", "2025-08-26", "09-30"}, false},
		{"midnight", WorkItemKey{"D1", "2025-08-26", "00-00"}, false},
		{"last slot", WorkItemKey{"D1", "2025-08-26", "23-30"}, false},
		{"missing device", WorkItemKey{"", "2025-08-26", "09-00"}, true},
		{"bad date", WorkItemKey{"D1", "2025/08/26", "09-00"}, true},
		{"off grid", WorkItemKey{"D1", "2025-08-26", "09-15"}, true},
		{"hour out of range", WorkItemKey{"D1", "2025-08-26", "24-00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStorageKeyRoundTrip(t *testing.T) {
	key := WorkItemKey{DeviceID: "D1", Date: "2025-08-26", TimeBlock: "09-00"}
	assert.Equal(t, "files/D1/2025-08-26/09-00/audio.wav", key.StorageKey())

	parsed, err := ParseStorageKey(key.StorageKey())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParseStorageKey("files/D1/2025-08-26/audio.wav")
	assert.Error(t, err)
	_, err = ParseStorageKey("other/D1/2025-08-26/09-00/audio.wav")
	assert.Error(t, err)
	_, err = ParseStorageKey("files/D1/2025-08-26/09-00/recording.wav")
	assert.ErrorContains(t, err, AudioFileName)
}

func TestLocalStart(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start, err := WorkItemKey{"D1", "2025-08-26", "09-30"}.LocalStart(tokyo)
	require.NoError(t, err)
	assert.Equal(t, 9, start.Hour())
	assert.Equal(t, 30, start.Minute())
	assert.Equal(t, tokyo, start.Location())
}

func TestStatusUpdateValidate(t *testing.T) {
	key := WorkItemKey{"D1", "2025-08-26", "09-00"}
	text := "こんにちは"
	empty := ""

	assert.NoError(t, StatusUpdate{Key: key, Status: StatusCompleted, Transcription: &text}.Validate())
	assert.Error(t, StatusUpdate{Key: key, Status: StatusCompleted}.Validate())
	assert.Error(t, StatusUpdate{Key: key, Status: StatusCompleted, Transcription: &empty}.Validate())
	assert.Error(t, StatusUpdate{Key: key, Status: StatusFailed, Transcription: &text}.Validate())
	assert.Error(t, StatusUpdate{Key: key, Status: StatusProcessing}.Validate())
	assert.NoError(t, StatusUpdate{Key: key, Status: StatusQuotaExceeded}.Validate())
}

func TestSelectorValidate(t *testing.T) {
	assert.NoError(t, Selector{DeviceID: "D1", Date: "2025-08-26"}.Validate())
	assert.NoError(t, Selector{DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"09-00"}}.Validate())
	assert.NoError(t, Selector{StorageKeys: []string{"files/D1/2025-08-26/09-00/audio.wav"}}.Validate())

	assert.Error(t, Selector{}.Validate())
	assert.Error(t, Selector{DeviceID: "D1"}.Validate())
	assert.Error(t, Selector{DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"9"}}.Validate())
	assert.Error(t, Selector{DeviceID: "D1", StorageKeys: []string{"files/D1/2025-08-26/09-00/audio.wav"}}.Validate())
}

func TestSelectorExplicitKeysDeduplicates(t *testing.T) {
	keys, err := Selector{DeviceID: "D1", Date: "2025-08-26", TimeBlocks: []string{"09-00", "09-30", "09-00"}}.ExplicitKeys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Equal(t, "09-30", keys[1].TimeBlock)

	keys, err = Selector{DeviceID: "D1", Date: "2025-08-26"}.ExplicitKeys()
	require.NoError(t, err)
	assert.Nil(t, keys)
}

func TestBatchSummaryAdd(t *testing.T) {
	var s BatchSummary
	key := WorkItemKey{"D1", "2025-08-26", "09-00"}
	s.Add(ItemResult{Key: key, Status: StatusCompleted})
	s.Add(ItemResult{Key: WorkItemKey{"D1", "2025-08-26", "09-30"}, Status: StatusQuotaExceeded})
	s.Add(ItemResult{Key: key, Status: StatusSkipped})

	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.QuotaExceeded)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []string{key.StorageKey()}, s.CompletedKeys())
}
