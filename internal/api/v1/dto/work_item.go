package dto

import (
	"time"

	"watchme-asr/internal/app/model"
)

// WorkItemQuery selects the work items of one device and date.
type WorkItemQuery struct {
	DeviceID    string `form:"device_id" binding:"required"`
	Date        string `form:"date" binding:"required,datetime=2006-01-02"`
	PendingOnly bool   `form:"pending_only"`
}

// WorkItemResponse represents a work item in API responses
type WorkItemResponse struct {
	DeviceID      string       `json:"device_id"`
	Date          string       `json:"date"`
	TimeBlock     string       `json:"time_block"`
	Status        model.Status `json:"status"`
	Transcription *string      `json:"transcription"`
	Reason        string       `json:"reason,omitempty"`
	Provider      string       `json:"provider,omitempty"`
	Model         string       `json:"model,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// WorkItemListResponse lists work items with per-status counts.
type WorkItemListResponse struct {
	Items  []WorkItemResponse   `json:"items"`
	Counts map[model.Status]int `json:"counts"`
}

// ToWorkItemResponse converts a work item to its response DTO.
func ToWorkItemResponse(item model.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		DeviceID:      item.Key.DeviceID,
		Date:          item.Key.Date,
		TimeBlock:     item.Key.TimeBlock,
		Status:        item.Status,
		Transcription: item.Transcription,
		Reason:        item.Reason,
		Provider:      item.Provider,
		Model:         item.Model,
		UpdatedAt:     item.UpdatedAt,
	}
}
