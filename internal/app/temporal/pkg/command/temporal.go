package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"watchme-asr/internal/app/common"
)

// BatchWorkflowID names a submitted batch after its selector
func BatchWorkflowID(req common.BatchWorkflowRequest) string {
	sel := req.Selector
	if sel.Legacy() {
		return "asr-batch-files-" + uuid.NewString()
	}
	return fmt.Sprintf("asr-batch-%s-%s-%s", sel.DeviceID, sel.Date, uuid.NewString()[:8])
}

// SubmitBatch starts a batch workflow on the worker task queue
func SubmitBatch(ctx context.Context, c client.Client, taskQueue string, req common.BatchWorkflowRequest) (client.WorkflowRun, error) {
	if err := req.Selector.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector: %w", err)
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        BatchWorkflowID(req),
		TaskQueue: taskQueue,
	}, common.BatchWorkflowName, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start batch workflow: %w", err)
	}
	return run, nil
}

// WaitForBatch waits for the workflow result, calling progressFunc with the
// elapsed time every interval while it runs
func WaitForBatch(ctx context.Context, run client.WorkflowRun, interval time.Duration, progressFunc func(elapsed time.Duration)) (*common.BatchWorkflowResult, error) {
	type outcome struct {
		result common.BatchWorkflowResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		var result common.BatchWorkflowResult
		err := run.Get(ctx, &result)
		done <- outcome{result: result, err: err}
	}()

	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case out := <-done:
			if out.err != nil {
				return nil, fmt.Errorf("batch workflow %s failed: %w", run.GetID(), out.err)
			}
			return &out.result, nil

		case <-ticker.C:
			if progressFunc != nil {
				progressFunc(time.Since(start))
			}

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
