package common

import (
	"time"

	"watchme-asr/internal/app/model"
)

// Activity and workflow names shared by the worker and its clients
const (
	RunBatchActivityName          = "RunBatch"
	BatchWorkflowName             = "BatchWorkflow"
	ScheduledBatchWorkflowName    = "ScheduledBatchWorkflow"
	InvalidSelectorErrorType      = "InvalidSelector"
	DefaultBatchActivityTimeout   = 30 * time.Minute
	DefaultBatchHeartbeatInterval = 10 * time.Second
)

// BatchWorkflowRequest represents the input for the batch transcription workflow
type BatchWorkflowRequest struct {
	Selector model.Selector `json:"selector"`

	// Activity limits; zero means the defaults above
	Timeout     time.Duration `json:"timeout,omitempty"`
	MaxAttempts int32         `json:"max_attempts,omitempty"`
}

// BatchWorkflowResult represents the output of the batch transcription workflow
type BatchWorkflowResult struct {
	Summary   model.BatchSummary `json:"summary"`
	Cancelled bool               `json:"cancelled,omitempty"`
}

// ScheduledBatchRequest is the input of the cron-driven workflow. An empty
// Date means the current local date in Timezone.
type ScheduledBatchRequest struct {
	Devices  []string `json:"devices"`
	Date     string   `json:"date,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
}

// ScheduledBatchResult reports one run per device; a failed device does not fail the others.
type ScheduledBatchResult struct {
	Date     string                         `json:"date"`
	Runs     map[string]BatchWorkflowResult `json:"runs"`
	Failures map[string]string              `json:"failures,omitempty"`
}
