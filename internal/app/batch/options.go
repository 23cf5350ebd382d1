package batch

import (
	"fmt"
	"time"

	"watchme-asr/internal/app/quota"
)

// Options tunes a batch run. Zero fields take the defaults below.
type Options struct {
	// Concurrency is the number of items processed in parallel.
	Concurrency int `yaml:"concurrency"`

	// FetchMaxAttempts bounds object fetches per item, first try included.
	FetchMaxAttempts int `yaml:"fetch_max_attempts"`

	// TranscribeMaxAttempts bounds provider calls per item unless the
	// provider's error_handling.max_retries says otherwise.
	TranscribeMaxAttempts int `yaml:"transcribe_max_attempts"`

	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`

	// TranscribeTimeout applies when the provider has no performance.timeout_sec.
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`

	// Timezone of device-local time blocks.
	Timezone string `yaml:"timezone"`

	Quota quota.Config `yaml:"quota_backoff"`
}

const (
	DefaultConcurrency           = 1
	DefaultFetchMaxAttempts      = 3
	DefaultTranscribeMaxAttempts = 3
	DefaultInitialBackoff        = time.Second
	DefaultMaxBackoff            = 30 * time.Second
	DefaultTranscribeTimeout     = 120 * time.Second
	DefaultTimezone              = "Asia/Tokyo"
)

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.FetchMaxAttempts <= 0 {
		o.FetchMaxAttempts = DefaultFetchMaxAttempts
	}
	if o.TranscribeMaxAttempts <= 0 {
		o.TranscribeMaxAttempts = DefaultTranscribeMaxAttempts
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = o.InitialBackoff
	}
	if o.TranscribeTimeout <= 0 {
		o.TranscribeTimeout = DefaultTranscribeTimeout
	}
	if o.Timezone == "" {
		o.Timezone = DefaultTimezone
	}
	return o
}

// Location loads the configured timezone.
func (o Options) Location() (*time.Location, error) {
	tz := o.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// backoff returns the delay before retry number attempt (1-based), doubling up to ceiling.
func backoff(initial, ceiling time.Duration, attempt int) time.Duration {
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}
