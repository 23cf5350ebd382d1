package services

import (
	"context"

	"github.com/samber/lo"

	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/repository"
)

// WorkItemServiceImpl implements WorkItemService
type WorkItemServiceImpl struct {
	store repository.WorkItemDAO
}

// NewWorkItemService creates a new work item service
func NewWorkItemService(store repository.WorkItemDAO) WorkItemService {
	return &WorkItemServiceImpl{store: store}
}

// ListWorkItems returns the items of a device and date with per-status counts
func (s *WorkItemServiceImpl) ListWorkItems(ctx context.Context, query dto.WorkItemQuery) (*dto.WorkItemListResponse, error) {
	var (
		items []model.WorkItem
		err   error
	)
	if query.PendingOnly {
		items, err = s.store.ListPending(ctx, query.DeviceID, query.Date)
	} else {
		items, err = s.store.List(ctx, query.DeviceID, query.Date)
	}
	if err != nil {
		return nil, err
	}

	counts := lo.CountValuesBy(items, func(item model.WorkItem) model.Status {
		return item.Status
	})

	return &dto.WorkItemListResponse{
		Items:  lo.Map(items, func(item model.WorkItem, _ int) dto.WorkItemResponse { return dto.ToWorkItemResponse(item) }),
		Counts: counts,
	}, nil
}
