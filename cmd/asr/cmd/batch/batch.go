package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"watchme-asr/internal/app"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/common"
	"watchme-asr/internal/app/logging"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/progress"
	"watchme-asr/internal/app/temporal/pkg/command"
	temporalcommon "watchme-asr/internal/app/temporal/pkg/common"
	"watchme-asr/internal/config"
)

var (
	deviceID     string
	date         string
	blocks       []string
	keys         []string
	providerName string
	modelName    string
	force        bool
	remote       bool
	showProgress bool
	jsonOutput   bool
)

func init() {
	runCmd.Flags().StringVarP(&deviceID, "device", "d", "", "device id whose pending blocks are processed")
	runCmd.Flags().StringVar(&date, "date", "", "device-local date, YYYY-MM-DD")
	runCmd.Flags().StringSliceVarP(&blocks, "blocks", "b", nil, "time blocks to process, e.g. 09-00,09-30 (default: all pending)")
	runCmd.Flags().StringSliceVar(&keys, "keys", nil, "storage keys files/<device>/<date>/<block>/audio.wav (legacy form)")
	runCmd.Flags().StringVarP(&providerName, "provider", "p", "", "provider override for this run")
	runCmd.Flags().StringVarP(&modelName, "model", "m", "", "model override for this run")
	runCmd.Flags().BoolVar(&force, "force", false, "reprocess completed and skipped items")
	runCmd.Flags().BoolVar(&remote, "remote", false, "submit the batch to the Temporal worker instead of running it here")
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "force the progress bar even without a terminal")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the summary as JSON")

	Cmd.AddCommand(runCmd)
}

// Cmd groups the batch commands
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Run transcription batches",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transcribe the pending blocks of a device and date",
	Long: `Transcribe the pending blocks of a device and date

- Without --blocks every pending, failed or quota_exceeded block is processed
- --keys accepts storage keys instead of --device/--date
- --remote hands the batch to the Temporal worker and waits for its summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := model.Selector{
			DeviceID:    deviceID,
			Date:        date,
			TimeBlocks:  blocks,
			StorageKeys: keys,
			Provider:    providerName,
			Model:       modelName,
			Force:       force,
		}
		if err := sel.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			summary *model.BatchSummary
			err     error
		)
		if remote {
			summary, err = runRemote(ctx, cmd.ErrOrStderr(), sel)
		} else {
			summary, err = runLocal(ctx, cmd.ErrOrStderr(), sel)
		}
		if summary != nil {
			if perr := printSummary(cmd.OutOrStdout(), summary, jsonOutput); perr != nil {
				return perr
			}
		}
		return err
	},
}

func runLocal(ctx context.Context, stderr io.Writer, sel model.Selector) (*model.BatchSummary, error) {
	application, cleanup, err := app.InitializeApplication(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pm := progress.NewManager(progress.Config{
		Enabled: progress.ShouldShowProgress(showProgress),
		Writer:  stderr,
	})
	bar := pm.NewBatchBar(describe(sel))

	summary, err := application.Orchestrator.RunBatch(ctx, sel, batch.WithObserver(bar))
	bar.Complete()
	pm.Wait()
	return summary, err
}

func runRemote(ctx context.Context, stderr io.Writer, sel model.Selector) (*model.BatchSummary, error) {
	settings, err := config.InitializeConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(!settings.IsProduction(), settings.LogLevel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	c, err := temporalcommon.NewTemporalClient(settings.Temporal, logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	run, err := command.SubmitBatch(ctx, c, settings.Temporal.TaskQueue, common.BatchWorkflowRequest{Selector: sel})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(stderr, "submitted %s (run %s)\n", run.GetID(), run.GetRunID())

	result, err := command.WaitForBatch(ctx, run, 10*time.Second, func(elapsed time.Duration) {
		fmt.Fprintf(stderr, "waiting for %s: %s\n", run.GetID(), elapsed.Round(time.Second))
	})
	if err != nil {
		return nil, err
	}
	if result.Cancelled {
		return &result.Summary, context.Canceled
	}
	return &result.Summary, nil
}

func describe(sel model.Selector) string {
	if sel.Legacy() {
		return fmt.Sprintf("%d keys", len(sel.StorageKeys))
	}
	return sel.DeviceID + " " + sel.Date
}

func printSummary(w io.Writer, s *model.BatchSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "run %s with %s/%s in %s\n", s.RunID, s.Provider, s.Model, s.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(w, "total=%d completed=%d failed=%d quota_exceeded=%d skipped=%d not_attempted=%d\n",
		s.Total, s.Completed, s.Failed, s.QuotaExceeded, s.Skipped, s.NotAttempted)
	for _, item := range s.Items {
		if item.Status == model.StatusCompleted {
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", item.Key, item.Status, item.Reason)
	}
	return nil
}
