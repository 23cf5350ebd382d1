package export

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"watchme-asr/internal/app/model"
)

// SheetName is the worksheet holding exported work items
const SheetName = "WorkItems"

var header = []string{
	"Device ID",
	"Date",
	"Time Block",
	"Status",
	"Transcription",
	"Reason",
	"Provider",
	"Model",
	"Updated At",
}

// Workbook builds a workbook with one row per work item
func Workbook(items []model.WorkItem) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, title := range header {
		headerRow.AddCell().Value = title
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().Value = item.Key.DeviceID
		row.AddCell().Value = item.Key.Date
		row.AddCell().Value = item.Key.TimeBlock
		row.AddCell().Value = string(item.Status)
		transcription := ""
		if item.Transcription != nil {
			transcription = *item.Transcription
		}
		row.AddCell().Value = transcription
		row.AddCell().Value = item.Reason
		row.AddCell().Value = item.Provider
		row.AddCell().Value = item.Model
		updated := ""
		if !item.UpdatedAt.IsZero() {
			updated = item.UpdatedAt.Format(time.RFC3339)
		}
		row.AddCell().Value = updated
	}
	return file, nil
}

// ToExcel writes the work items to outputFilePath
func ToExcel(items []model.WorkItem, outputFilePath string) error {
	file, err := Workbook(items)
	if err != nil {
		return err
	}
	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("save %s: %w", outputFilePath, err)
	}
	return nil
}
