package model

import (
	"fmt"
	"regexp"
	"time"

	apperrors "watchme-asr/internal/app/errors"
)

// Status is the lifecycle state of a WorkItem.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusQuotaExceeded Status = "quota_exceeded"
	StatusSkipped       Status = "skipped"
)

// NoSpeechSentinel is stored as the transcription of a segment that was
// processed successfully but contained no speech.
const NoSpeechSentinel = "[no speech detected]"

const dateLayout = "2006-01-02"

var timeBlockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3])-(00|30)$`)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusQuotaExceeded, StatusSkipped:
		return true
	}
	return false
}

// RetryEligible reports whether an item in this status may be picked up by a batch.
func (s Status) RetryEligible() bool {
	return s == StatusPending || s == StatusFailed || s == StatusQuotaExceeded
}

// Terminal reports whether the status is one a batch commits.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusQuotaExceeded, StatusSkipped:
		return true
	}
	return false
}

// WorkItemKey identifies one 30-minute audio segment of a device.
type WorkItemKey struct {
	DeviceID  string `json:"device_id"`
	Date      string `json:"date"`
	TimeBlock string `json:"time_block"`
}

// Validate checks the key fields against the date and 48-slot time block grid.
func (k WorkItemKey) Validate() error {
	if k.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if _, err := time.Parse(dateLayout, k.Date); err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD", k.Date)
	}
	if !ValidTimeBlock(k.TimeBlock) {
		return fmt.Errorf("time_block %q must be HH-MM on a 30 minute boundary", k.TimeBlock)
	}
	return nil
}

// String renders the key as device/date/block.
func (k WorkItemKey) String() string {
	return k.DeviceID + "/" + k.Date + "/" + k.TimeBlock
}

// AudioFileName is the object name every segment is uploaded under.
const AudioFileName = "audio.wav"

// StorageKey returns the object store key holding the audio of this segment.
func (k WorkItemKey) StorageKey() string {
	return fmt.Sprintf("files/%s/%s/%s/%s", k.DeviceID, k.Date, k.TimeBlock, AudioFileName)
}

// LocalStart returns the wall-clock start of the time block in loc.
func (k WorkItemKey) LocalStart(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout+" 15-04", k.Date+" "+k.TimeBlock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local start of %s: %w", k, err)
	}
	return t, nil
}

// ValidTimeBlock reports whether block is on the HH-MM half-hour grid.
func ValidTimeBlock(block string) bool {
	return timeBlockPattern.MatchString(block)
}

// WorkItem is the persisted state of a segment.
//
// Transcription is non-nil exactly when Status is StatusCompleted.
type WorkItem struct {
	Key           WorkItemKey `json:"key"`
	Status        Status      `json:"status"`
	Transcription *string     `json:"transcription"`
	Reason        string      `json:"reason,omitempty"`
	Provider      string      `json:"provider,omitempty"`
	Model         string      `json:"model,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// StatusUpdate is the latest attempt state written for a key.
type StatusUpdate struct {
	Key           WorkItemKey
	Status        Status
	Transcription *string
	Reason        string
	Provider      string
	Model         string
}

// Validate enforces the transcription invariant before anything is persisted.
func (u StatusUpdate) Validate() error {
	if err := u.Key.Validate(); err != nil {
		return err
	}
	if !u.Status.Terminal() && u.Status != StatusPending {
		return fmt.Errorf("status %q cannot be persisted", u.Status)
	}
	if u.Status == StatusCompleted {
		if u.Transcription == nil || *u.Transcription == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidTranscription, "completed item %s requires a non-empty transcription", u.Key)
		}
		return nil
	}
	if u.Transcription != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidTranscription, "item %s in status %q must not carry a transcription", u.Key, u.Status)
	}
	return nil
}
