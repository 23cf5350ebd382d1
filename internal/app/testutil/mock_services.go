package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"watchme-asr/internal/api/v1/dto"
)

// MockServices contains all mock services for handler tests
type MockServices struct {
	BatchService         *MockBatchService
	TranscriptionService *MockTranscriptionService
	ProviderService      *MockProviderService
	WorkItemService      *MockWorkItemService
}

// NewMockServices creates a new instance of mock services; expectations are asserted on cleanup
func NewMockServices(t *testing.T) *MockServices {
	ms := &MockServices{
		BatchService:         &MockBatchService{},
		TranscriptionService: &MockTranscriptionService{},
		ProviderService:      &MockProviderService{},
		WorkItemService:      &MockWorkItemService{},
	}
	ms.BatchService.Test(t)
	ms.TranscriptionService.Test(t)
	ms.ProviderService.Test(t)
	ms.WorkItemService.Test(t)
	t.Cleanup(func() {
		ms.BatchService.AssertExpectations(t)
		ms.TranscriptionService.AssertExpectations(t)
		ms.ProviderService.AssertExpectations(t)
		ms.WorkItemService.AssertExpectations(t)
	})
	return ms
}

// MockBatchService is a mock implementation of BatchService
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) RunBatch(ctx context.Context, req *dto.BatchRequest) (*dto.BatchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BatchResponse), args.Error(1)
}

// MockTranscriptionService is a mock implementation of TranscriptionService
type MockTranscriptionService struct {
	mock.Mock
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, upload *dto.TranscribeUpload) (*dto.TranscribeResponse, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TranscribeResponse), args.Error(1)
}

// MockProviderService is a mock implementation of ProviderService
type MockProviderService struct {
	mock.Mock
}

func (m *MockProviderService) ListProviders(ctx context.Context) (*dto.ProviderListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProviderListResponse), args.Error(1)
}

func (m *MockProviderService) SetSelection(ctx context.Context, req *dto.SelectionRequest) (*dto.SelectionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SelectionResponse), args.Error(1)
}

func (m *MockProviderService) GetProviderStats(ctx context.Context, name string) (*dto.ProviderStatsResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProviderStatsResponse), args.Error(1)
}

func (m *MockProviderService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.HealthResponse), args.Error(1)
}

// MockWorkItemService is a mock implementation of WorkItemService
type MockWorkItemService struct {
	mock.Mock
}

func (m *MockWorkItemService) ListWorkItems(ctx context.Context, query dto.WorkItemQuery) (*dto.WorkItemListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WorkItemListResponse), args.Error(1)
}
