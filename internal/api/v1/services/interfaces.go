package services

import (
	"context"

	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/model"
)

// BatchService runs transcription batches for the invocation surface
type BatchService interface {
	RunBatch(ctx context.Context, req *dto.BatchRequest) (*dto.BatchResponse, error)
}

// TranscriptionService transcribes uploaded audio without persisting it
type TranscriptionService interface {
	Transcribe(ctx context.Context, upload *dto.TranscribeUpload) (*dto.TranscribeResponse, error)
}

// ProviderService defines the interface for provider operations
type ProviderService interface {
	ListProviders(ctx context.Context) (*dto.ProviderListResponse, error)
	SetSelection(ctx context.Context, req *dto.SelectionRequest) (*dto.SelectionResponse, error)
	GetProviderStats(ctx context.Context, name string) (*dto.ProviderStatsResponse, error)
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

// WorkItemService reads current work item statuses
type WorkItemService interface {
	ListWorkItems(ctx context.Context, query dto.WorkItemQuery) (*dto.WorkItemListResponse, error)
}

// BatchRunner is implemented by *batch.Orchestrator.
type BatchRunner interface {
	RunBatch(ctx context.Context, sel model.Selector, options ...batch.RunOption) (*model.BatchSummary, error)
}

// ProviderRegistry is implemented by *provider.Registry.
type ProviderRegistry interface {
	batch.Resolver
	Active() provider.Selection
	SetSelection(sel provider.Selection) (provider.Selection, error)
	Describe() []provider.ProviderStatus
	HealthCheckAll(ctx context.Context) map[string]error
}
