package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"watchme-asr/internal/api/v1/dto"
)

// BatchServiceImpl implements BatchService
type BatchServiceImpl struct {
	runner BatchRunner
	logger *zap.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(runner BatchRunner, logger *zap.Logger) BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchServiceImpl{runner: runner, logger: logger}
}

// RunBatch runs the batch synchronously. A cancelled run still reports its
// partial summary; every other error is returned for the HTTP layer to map.
func (s *BatchServiceImpl) RunBatch(ctx context.Context, req *dto.BatchRequest) (*dto.BatchResponse, error) {
	summary, err := s.runner.RunBatch(ctx, req.Selector())
	if err != nil {
		if summary != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			s.logger.Warn("batch cancelled by caller",
				zap.String("run_id", summary.RunID),
				zap.Int("not_attempted", summary.NotAttempted))
			return dto.ToBatchResponse(summary, true), nil
		}
		return nil, err
	}
	return dto.ToBatchResponse(summary, false), nil
}
