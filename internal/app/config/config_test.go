package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "watchme-asr/internal/app/errors"
)

const sampleYAML = `
default_provider: azure
default_model: ja-JP
providers:
  azure:
    enabled: true
    auth:
      api_key: ${ASR_TEST_AZURE_KEY}
      region: japaneast
    quota_heuristic:
      enabled: true
      window_start: "00:00"
      window_end: "09:00"
      timezone: Asia/Tokyo
  groq:
    enabled: true
    performance:
      timeout_sec: 30
      rate_limit_rpm: 20
    error_handling:
      max_retries: 2
      retry_delay_ms: 500
orchestrator:
  concurrency: 4
  fetch_max_attempts: 5
  initial_backoff: 250ms
  quota_backoff:
    threshold: 3
    window: 10m
    cooldown: 1h
skip_policy:
  D1:
    hours: [0, 1, 2]
    reason: night
schedule:
  cron: "*/30 * * * *"
  devices: [D1]
`

func TestParse(t *testing.T) {
	t.Setenv("ASR_TEST_AZURE_KEY", "az-key")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.Selection().Provider)
	assert.Equal(t, "ja-JP", cfg.Selection().Model)
	assert.Equal(t, "az-key", cfg.Providers["azure"].Auth.APIKey)
	assert.Equal(t, 20, cfg.Providers["groq"].Performance.RateLimitRPM)

	o := cfg.Orchestrator
	assert.Equal(t, 4, o.Concurrency)
	assert.Equal(t, 5, o.FetchMaxAttempts)
	assert.Equal(t, 3, o.TranscribeMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, o.InitialBackoff)
	assert.Equal(t, "Asia/Tokyo", o.Timezone)
	assert.Equal(t, 3, o.Quota.Threshold)
	assert.Equal(t, time.Hour, o.Quota.Cooldown)

	assert.Equal(t, []int{0, 1, 2}, cfg.SkipPolicy["D1"].Hours)
	assert.Equal(t, []string{"D1"}, cfg.Schedule.Devices)

	heuristics := cfg.QuotaHeuristics()
	assert.True(t, heuristics["azure"].Enabled)
	assert.False(t, heuristics["groq"].Enabled)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "providers: [unclosed"},
		{"disabled default", "default_provider: groq\nproviders:\n  groq:\n    enabled: false\n"},
		{"bad window", "providers:\n  azure:\n    enabled: true\n    quota_heuristic:\n      enabled: true\n      window_start: '9am'\n      window_end: '10:00'\n"},
		{"bad timezone", "orchestrator:\n  timezone: Mars/Olympus\n"},
		{"bad hour", "skip_policy:\n  D1:\n    hours: [24]\n"},
		{"negative retries", "providers:\n  groq:\n    enabled: true\n    error_handling:\n      max_retries: -1\n"},
		{"too many workers", "orchestrator:\n  concurrency: 500\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.DefaultProvider)
	assert.Contains(t, cfg.Providers, "azure")
	h := cfg.Providers["azure"].QuotaHeuristic
	assert.True(t, h.Enabled)
	assert.Equal(t, "00:00", h.WindowStart)
	assert.Equal(t, "09:00", h.WindowEnd)
	assert.Equal(t, "Asia/Tokyo", h.Timezone)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "asr.yaml")
	require.NoError(t, Save(Default(), path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.DefaultProvider)
	assert.Equal(t, 1, cfg.Orchestrator.Concurrency)
	assert.False(t, cfg.Providers["google"].Enabled)
}
