package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"watchme-asr/internal/app/common"
	appconfig "watchme-asr/internal/app/config"
	"watchme-asr/internal/app/temporal/activities"
	"watchme-asr/internal/app/temporal/workflows"
)

// ScheduleWorkflowID identifies the cron workflow so restarts reuse it
const ScheduleWorkflowID = "asr-scheduled-batch"

// Config configures the batch worker
type Config struct {
	TaskQueue  string
	Endpoint   string
	HealthAddr string
	Timezone   string
	Schedule   appconfig.ScheduleConfig
	// MaxConcurrentBatches bounds parallel batch activities; each batch has its own item pool.
	MaxConcurrentBatches int
}

// Worker polls the task queue and runs batch activities against the orchestrator
type Worker struct {
	client client.Client
	runner activities.Runner
	config Config
	logger *zap.Logger
	status *HealthStatus
}

// New creates a worker
func New(c client.Client, runner activities.Runner, config Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxConcurrentBatches <= 0 {
		config.MaxConcurrentBatches = 2
	}
	hostname, _ := os.Hostname()
	return &Worker{
		client: c,
		runner: runner,
		config: config,
		logger: logger,
		status: &HealthStatus{
			WorkerID:  fmt.Sprintf("%s-%d", hostname, os.Getpid()),
			TaskQueue: config.TaskQueue,
			Status:    "starting",
			StartedAt: time.Now(),
			Temporal:  ConnectionStatus{Endpoint: config.Endpoint},
			Schedule:  config.Schedule.Cron,
		},
	}
}

// Register adds the workflows and activities of this service to w
func Register(w sdkworker.Registry, runner activities.Runner) {
	w.RegisterWorkflowWithOptions(workflows.BatchWorkflow, workflow.RegisterOptions{Name: common.BatchWorkflowName})
	w.RegisterWorkflowWithOptions(workflows.ScheduledBatchWorkflow, workflow.RegisterOptions{Name: common.ScheduledBatchWorkflowName})
	w.RegisterActivity(activities.NewBatchActivities(runner))
}

// Run polls until ctx is done. The cron workflow is ensured when a schedule is configured.
func (w *Worker) Run(ctx context.Context) error {
	tw := sdkworker.New(w.client, w.config.TaskQueue, sdkworker.Options{
		MaxConcurrentActivityExecutionSize: w.config.MaxConcurrentBatches,
	})
	Register(tw, w.runner)

	var healthServer *http.Server
	if w.config.HealthAddr != "" {
		healthServer = &http.Server{Addr: w.config.HealthAddr, Handler: healthHandler(w.status), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				w.logger.Warn("health server failed", zap.String("addr", w.config.HealthAddr), zap.Error(err))
			}
		}()
	}

	if err := tw.Start(); err != nil {
		w.status.SetTemporal(false, err)
		return fmt.Errorf("failed to start worker on %s: %w", w.config.TaskQueue, err)
	}
	w.status.SetTemporal(true, nil)
	w.logger.Info("worker started",
		zap.String("task_queue", w.config.TaskQueue),
		zap.String("worker_id", w.status.WorkerID))

	if err := w.EnsureSchedule(ctx); err != nil {
		w.logger.Error("failed to register batch schedule", zap.Error(err))
	}

	<-ctx.Done()
	w.logger.Info("stopping worker")
	tw.Stop()

	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}
	return nil
}

// EnsureSchedule starts the cron workflow unless it already runs
func (w *Worker) EnsureSchedule(ctx context.Context) error {
	req, ok := ScheduleRequest(w.config)
	if !ok {
		return nil
	}

	run, err := w.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           ScheduleWorkflowID,
		TaskQueue:    w.config.TaskQueue,
		CronSchedule: w.config.Schedule.Cron,
	}, common.ScheduledBatchWorkflowName, req)
	if err != nil {
		return fmt.Errorf("start scheduled workflow: %w", err)
	}

	w.logger.Info("batch schedule registered",
		zap.String("cron", w.config.Schedule.Cron),
		zap.Strings("devices", req.Devices),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()))
	return nil
}

// ScheduleRequest builds the cron workflow input; ok is false when nothing is scheduled
func ScheduleRequest(config Config) (common.ScheduledBatchRequest, bool) {
	if config.Schedule.Cron == "" || len(config.Schedule.Devices) == 0 {
		return common.ScheduledBatchRequest{}, false
	}
	return common.ScheduledBatchRequest{
		Devices:  config.Schedule.Devices,
		Timezone: config.Timezone,
	}, true
}
