package activities

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/common"
	"watchme-asr/internal/app/model"
)

// Runner is implemented by *batch.Orchestrator
type Runner interface {
	RunBatch(ctx context.Context, sel model.Selector, options ...batch.RunOption) (*model.BatchSummary, error)
}

// BatchActivities runs orchestrator batches inside Temporal activities
type BatchActivities struct {
	runner            Runner
	heartbeatInterval time.Duration
}

// NewBatchActivities creates a new instance of batch activities
func NewBatchActivities(runner Runner) *BatchActivities {
	return &BatchActivities{
		runner:            runner,
		heartbeatInterval: common.DefaultBatchHeartbeatInterval,
	}
}

// progress counts finished items for heartbeats
type progress struct {
	total    atomic.Int64
	finished atomic.Int64
}

func (p *progress) BatchStarted(total int) {
	p.total.Store(int64(total))
}

func (p *progress) ItemFinished(model.ItemResult) {
	p.finished.Add(1)
}

func (p *progress) String() string {
	return fmt.Sprintf("%d/%d items", p.finished.Load(), p.total.Load())
}

// RunBatch runs one batch and heartbeats its progress while it runs.
// Invalid selectors fail without retry; cancellation returns the partial summary.
func (a *BatchActivities) RunBatch(ctx context.Context, req common.BatchWorkflowRequest) (common.BatchWorkflowResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting batch", "deviceId", req.Selector.DeviceID, "date", req.Selector.Date, "provider", req.Selector.Provider)

	activity.RecordHeartbeat(ctx, "starting")

	prog := &progress{}
	type outcome struct {
		summary *model.BatchSummary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := a.runner.RunBatch(ctx, req.Selector, batch.WithObserver(prog))
		done <- outcome{summary: summary, err: err}
	}()

	heartbeatTicker := time.NewTicker(a.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-heartbeatTicker.C:
			activity.RecordHeartbeat(ctx, prog.String())

		case out := <-done:
			return a.finish(ctx, out.summary, out.err)
		}
	}
}

func (a *BatchActivities) finish(ctx context.Context, summary *model.BatchSummary, err error) (common.BatchWorkflowResult, error) {
	logger := activity.GetLogger(ctx)

	if err != nil {
		if errors.Is(err, batch.ErrInvalidSelector) {
			return common.BatchWorkflowResult{}, temporal.NewNonRetryableApplicationError(err.Error(), common.InvalidSelectorErrorType, err)
		}
		if summary != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			logger.Warn("Batch cancelled", "runId", summary.RunID, "notAttempted", summary.NotAttempted)
			return common.BatchWorkflowResult{Summary: *summary, Cancelled: true}, err
		}
		logger.Error("Batch aborted", "error", err)
		return common.BatchWorkflowResult{}, err
	}

	logger.Info("Batch completed",
		"runId", summary.RunID,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"quotaExceeded", summary.QuotaExceeded,
		"skipped", summary.Skipped)
	return common.BatchWorkflowResult{Summary: *summary}, nil
}
