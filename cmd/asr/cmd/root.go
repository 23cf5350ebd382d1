package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"watchme-asr/cmd/asr/cmd/batch"
	"watchme-asr/cmd/asr/cmd/config"
	"watchme-asr/cmd/asr/cmd/export"
	"watchme-asr/cmd/asr/cmd/providers"
	"watchme-asr/cmd/asr/cmd/serve"
	"watchme-asr/cmd/asr/cmd/version"
	"watchme-asr/cmd/asr/cmd/worker"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "asr",
	Short: "Batch speech recognition for wearable audio segments",
	Long: `Batch speech recognition for wearable audio segments.

- Work items are 30-minute audio blocks keyed by device, date and time block
- Each batch fetches pending blocks from object storage and sends them to the selected provider
- Outcomes are written back to the status store as completed, failed, quota_exceeded or skipped`,
	SilenceUsage:     true,
	TraverseChildren: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if Verbose {
			_ = os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(batch.Cmd)
	rootCmd.AddCommand(worker.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(providers.Cmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
