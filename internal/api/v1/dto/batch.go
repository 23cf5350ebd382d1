package dto

import (
	"strings"

	"watchme-asr/internal/app/model"
)

// BatchRequest is the body of POST /fetch-and-transcribe and POST /api/v1/batches.
// Either device_id and date (with optional time_blocks) or file_paths is required.
type BatchRequest struct {
	DeviceID   string   `json:"device_id"`
	Date       string   `json:"date" binding:"omitempty,datetime=2006-01-02"`
	TimeBlocks []string `json:"time_blocks,omitempty"`
	FilePaths  []string `json:"file_paths,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	Force      bool     `json:"force,omitempty"`
}

// Selector converts the request into a batch selector.
func (r *BatchRequest) Selector() model.Selector {
	return model.Selector{
		DeviceID:    strings.TrimSpace(r.DeviceID),
		Date:        strings.TrimSpace(r.Date),
		TimeBlocks:  r.TimeBlocks,
		StorageKeys: r.FilePaths,
		Provider:    r.Provider,
		Model:       r.Model,
		Force:       r.Force,
	}
}

// BatchCounts is the summary block of a batch response.
type BatchCounts struct {
	TotalFiles       int `json:"total_files"`
	PendingProcessed int `json:"pending_processed"`
	Errors           int `json:"errors"`
	Completed        int `json:"completed"`
	Failed           int `json:"failed"`
	QuotaExceeded    int `json:"quota_exceeded"`
	Skipped          int `json:"skipped"`
	NotAttempted     int `json:"not_attempted"`
}

// Batch response statuses. Callers must read the counts to detect partial failure.
const (
	BatchStatusSuccess   = "success"
	BatchStatusPartial   = "partial"
	BatchStatusCancelled = "cancelled"
)

// BatchResponse is always returned with HTTP 200 once the batch ran.
type BatchResponse struct {
	Status               string             `json:"status"`
	RunID                string             `json:"run_id"`
	Summary              BatchCounts        `json:"summary"`
	ProcessedFiles       []string           `json:"processed_files"`
	ExecutionTimeSeconds float64            `json:"execution_time_seconds"`
	Message              string             `json:"message"`
	Provider             string             `json:"provider"`
	Model                string             `json:"model"`
	Items                []model.ItemResult `json:"items"`
}

// ToBatchResponse builds the response shape from a summary.
func ToBatchResponse(s *model.BatchSummary, cancelled bool) *BatchResponse {
	counts := BatchCounts{
		TotalFiles:       s.Total,
		PendingProcessed: s.Completed,
		Errors:           s.Failed + s.QuotaExceeded,
		Completed:        s.Completed,
		Failed:           s.Failed,
		QuotaExceeded:    s.QuotaExceeded,
		Skipped:          s.Skipped,
		NotAttempted:     s.NotAttempted,
	}

	status := BatchStatusSuccess
	switch {
	case cancelled:
		status = BatchStatusCancelled
	case counts.Errors > 0:
		status = BatchStatusPartial
	}

	items := s.Items
	if items == nil {
		items = []model.ItemResult{}
	}

	return &BatchResponse{
		Status:               status,
		RunID:                s.RunID,
		Summary:              counts,
		ProcessedFiles:       s.CompletedKeys(),
		ExecutionTimeSeconds: s.Elapsed().Seconds(),
		Message:              batchMessage(counts, status),
		Provider:             s.Provider,
		Model:                s.Model,
		Items:                items,
	}
}

func batchMessage(c BatchCounts, status string) string {
	switch {
	case c.TotalFiles == 0:
		return "no pending work items"
	case status == BatchStatusCancelled:
		return "batch cancelled before every item was attempted"
	case status == BatchStatusPartial:
		return "batch finished with errors; see summary"
	default:
		return "batch finished"
	}
}
