package workflows

import (
	"fmt"
	"sort"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/common"
	"watchme-asr/internal/app/model"
)

const defaultBatchAttempts = 3

func batchActivityOptions(req common.BatchWorkflowRequest) workflow.ActivityOptions {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = common.DefaultBatchActivityTimeout
	}
	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = defaultBatchAttempts
	}
	return workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    6 * common.DefaultBatchHeartbeatInterval,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        30 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Minute,
			MaximumAttempts:        attempts,
			NonRetryableErrorTypes: []string{common.InvalidSelectorErrorType},
		},
	}
}

// BatchWorkflow runs one orchestrator batch as an activity. Retrying the
// activity is safe because committed items are not picked up again.
func BatchWorkflow(ctx workflow.Context, req common.BatchWorkflowRequest) (common.BatchWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch workflow",
		"deviceId", req.Selector.DeviceID,
		"date", req.Selector.Date,
		"files", len(req.Selector.StorageKeys))

	ctx = workflow.WithActivityOptions(ctx, batchActivityOptions(req))

	var result common.BatchWorkflowResult
	if err := workflow.ExecuteActivity(ctx, common.RunBatchActivityName, req).Get(ctx, &result); err != nil {
		logger.Error("Batch workflow failed", "error", err)
		return common.BatchWorkflowResult{}, err
	}

	logger.Info("Batch workflow completed",
		"runId", result.Summary.RunID,
		"completed", result.Summary.Completed,
		"quotaExceeded", result.Summary.QuotaExceeded)
	return result, nil
}

// ScheduledBatchWorkflow runs every pending item of each device for one date.
// Devices run in parallel and fail independently.
func ScheduledBatchWorkflow(ctx workflow.Context, req common.ScheduledBatchRequest) (common.ScheduledBatchResult, error) {
	logger := workflow.GetLogger(ctx)

	date := req.Date
	if date == "" {
		loc, err := loadLocation(req.Timezone)
		if err != nil {
			return common.ScheduledBatchResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTimezone", err)
		}
		date = workflow.Now(ctx).In(loc).Format("2006-01-02")
	}
	logger.Info("Starting scheduled batch", "date", date, "devices", len(req.Devices))

	result := common.ScheduledBatchResult{
		Date:     date,
		Runs:     make(map[string]common.BatchWorkflowResult),
		Failures: make(map[string]string),
	}

	devices := append([]string(nil), req.Devices...)
	sort.Strings(devices)

	futures := make(map[string]workflow.Future, len(devices))
	for _, device := range devices {
		batchReq := common.BatchWorkflowRequest{
			Selector: model.Selector{
				DeviceID: device,
				Date:     date,
				Provider: req.Provider,
				Model:    req.Model,
			},
		}
		actCtx := workflow.WithActivityOptions(ctx, batchActivityOptions(batchReq))
		futures[device] = workflow.ExecuteActivity(actCtx, common.RunBatchActivityName, batchReq)
	}

	for _, device := range devices {
		var run common.BatchWorkflowResult
		if err := futures[device].Get(ctx, &run); err != nil {
			logger.Error("Scheduled batch failed for device", "deviceId", device, "error", err)
			result.Failures[device] = err.Error()
			continue
		}
		result.Runs[device] = run
	}

	if len(devices) > 0 && len(result.Failures) == len(devices) {
		return result, fmt.Errorf("scheduled batch failed for every device on %s", date)
	}
	return result, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = batch.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
