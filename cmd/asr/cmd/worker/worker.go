package worker

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"watchme-asr/internal/app"
	temporalcommon "watchme-asr/internal/app/temporal/pkg/common"
	tworker "watchme-asr/internal/app/temporal/worker"
	"watchme-asr/internal/config"
)

var (
	healthAddr      string
	maxConcurrent   int
	disableSchedule bool
)

func init() {
	Cmd.Flags().StringVar(&healthAddr, "health", config.GetEnv("WORKER_HEALTH_ADDR", ":8081"), "address of the /health, /live and /ready endpoints; empty disables them")
	Cmd.Flags().IntVar(&maxConcurrent, "maxConcurrent", config.GetEnvInt("WORKER_MAX_CONCURRENT_BATCHES", 2), "batch activities run in parallel")
	Cmd.Flags().BoolVar(&disableSchedule, "noSchedule", false, "do not start the cron batch workflow")
}

// Cmd represents the worker command
var Cmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker executing batch workflows",
	Long: `Run the Temporal worker executing batch workflows

- Polls the task queue named by TEMPORAL_TASK_QUEUE
- Runs batch activities against the local orchestrator, heartbeating progress
- Starts the scheduled batch workflow when schedule.cron and schedule.devices are configured`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, cleanup, err := app.InitializeApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		settings := application.Settings
		c, err := temporalcommon.NewTemporalClient(settings.Temporal, application.Logger)
		if err != nil {
			return err
		}
		defer c.Close()

		schedule := application.Config.Schedule
		if disableSchedule {
			schedule.Cron = ""
		}

		w := tworker.New(c, application.Orchestrator, tworker.Config{
			TaskQueue:            settings.Temporal.TaskQueue,
			Endpoint:             settings.Temporal.HostPort,
			HealthAddr:           healthAddr,
			Timezone:             application.Config.Orchestrator.Timezone,
			Schedule:             schedule,
			MaxConcurrentBatches: maxConcurrent,
		}, application.Logger)

		application.Logger.Info("connecting worker", zap.String("temporal", settings.Temporal.HostPort))
		return w.Run(ctx)
	},
}
