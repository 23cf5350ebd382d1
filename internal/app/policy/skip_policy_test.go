package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldSkip(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	filter, err := NewFilter(map[string]DeviceRule{
		"D1": {Hours: []int{0, 1, 2, 23}, Reason: "night time"},
		"D2": {Hours: []int{12}},
	})
	require.NoError(t, err)

	at := func(hour, minute int) time.Time {
		return time.Date(2025, 8, 26, hour, minute, 0, 0, tokyo)
	}

	tests := []struct {
		name   string
		device string
		local  time.Time
		want   Decision
	}{
		{"excluded hour", "D1", at(1, 30), Decision{Skip: true, Reason: "night time"}},
		{"last hour", "D1", at(23, 0), Decision{Skip: true, Reason: "night time"}},
		{"allowed hour", "D1", at(9, 0), Decision{}},
		{"default reason", "D2", at(12, 30), Decision{Skip: true, Reason: defaultReason}},
		{"device without rule", "D3", at(1, 0), Decision{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.ShouldSkip(tt.device, tt.local))
		})
	}

	assert.Equal(t, []string{"D1", "D2"}, filter.Devices())
}

func TestNewFilterRejectsBadHours(t *testing.T) {
	_, err := NewFilter(map[string]DeviceRule{"D1": {Hours: []int{24}}})
	assert.Error(t, err)

	_, err = NewFilter(map[string]DeviceRule{"": {Hours: []int{1}}})
	assert.Error(t, err)
}

func TestNilFilterNeverSkips(t *testing.T) {
	var filter *Filter
	assert.False(t, filter.ShouldSkip("D1", time.Now()).Skip)
}
