package model

import "time"

// ItemResult is the committed outcome of one item in a batch.
type ItemResult struct {
	Key      WorkItemKey `json:"key"`
	Status   Status      `json:"status"`
	Reason   string      `json:"reason,omitempty"`
	Attempts int         `json:"attempts"`
	Duration float64     `json:"duration_seconds"`
}

// BatchSummary aggregates the item outcomes of a batch run.
type BatchSummary struct {
	RunID         string       `json:"run_id"`
	Provider      string       `json:"provider"`
	Model         string       `json:"model"`
	Total         int          `json:"total"`
	Completed     int          `json:"completed"`
	Failed        int          `json:"failed"`
	QuotaExceeded int          `json:"quota_exceeded"`
	Skipped       int          `json:"skipped"`
	NotAttempted  int          `json:"not_attempted"`
	Items         []ItemResult `json:"items"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
}

// Add counts one committed item.
func (s *BatchSummary) Add(r ItemResult) {
	s.Items = append(s.Items, r)
	switch r.Status {
	case StatusCompleted:
		s.Completed++
	case StatusFailed:
		s.Failed++
	case StatusQuotaExceeded:
		s.QuotaExceeded++
	case StatusSkipped:
		s.Skipped++
	}
}

// Elapsed is the wall time of the run.
func (s *BatchSummary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// CompletedKeys lists the storage keys of completed items in commit order.
func (s *BatchSummary) CompletedKeys() []string {
	keys := make([]string, 0, s.Completed)
	for _, item := range s.Items {
		if item.Status == StatusCompleted {
			keys = append(keys, item.Key.StorageKey())
		}
	}
	return keys
}
