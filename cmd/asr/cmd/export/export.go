package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchme-asr/internal/app"
	"watchme-asr/internal/app/export"
	"watchme-asr/internal/app/model"
)

var (
	deviceID       string
	date           string
	outputFilePath string
	pendingOnly    bool
)

func init() {
	Cmd.Flags().StringVarP(&deviceID, "device", "d", "", "device id")
	Cmd.Flags().StringVar(&date, "date", "", "device-local date, YYYY-MM-DD")
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "xlsx file to write")
	Cmd.Flags().BoolVar(&pendingOnly, "pending", false, "export only items a batch would retry")

	_ = Cmd.MarkFlagRequired("device")
	_ = Cmd.MarkFlagRequired("date")
	_ = Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export the work items of a device and date to excel",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := model.WorkItemKey{DeviceID: deviceID, Date: date, TimeBlock: "00-00"}
		if err := key.Validate(); err != nil {
			return err
		}

		store, cleanup, err := app.InitializeStore(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var items []model.WorkItem
		if pendingOnly {
			items, err = store.ListPending(cmd.Context(), deviceID, date)
		} else {
			items, err = store.List(cmd.Context(), deviceID, date)
		}
		if err != nil {
			return err
		}

		if err := export.ToExcel(items, outputFilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export finished, %d items written to %v\n", len(items), outputFilePath)
		return nil
	},
}
