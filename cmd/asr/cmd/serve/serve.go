package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"watchme-asr/internal/app"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP batch invocation surface",
	Long: `Start the HTTP batch invocation surface

- POST /fetch-and-transcribe and /api/v1/batches run a batch synchronously
- POST /api/v1/transcribe transcribes an uploaded file without persisting it
- GET /health and /metrics report liveness and Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, cleanup, err := app.InitializeApplication(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return application.Server.Run(ctx, app.ShutdownTimeout)
	},
}
