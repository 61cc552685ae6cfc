package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetview/internal/model"
	"fleetview/internal/project"
)

// stopColumns is the header row of the stops workbook.
var stopColumns = []string{"Start", "End", "Duration", "Address", "Latitude", "Longitude"}

// BuildStopsWorkbook renders a stops report as an Excel workbook for
// operator download. Speed-independent, but the sheet is titled with the
// device name so multi-export files stay distinguishable.
func BuildStopsWorkbook(deviceName string, stops []model.StopReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Stops"
	f.SetSheetName("Sheet1", sheet)
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Stops: %s", deviceName))

	for i, col := range stopColumns {
		cell := fmt.Sprintf("%c2", 'A'+i)
		f.SetCellValue(sheet, cell, col)
	}

	for i, stop := range stops {
		row := i + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), stop.StartTime.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stop.EndTime.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), formatDuration(stop.Duration))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), stop.Address)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), stop.Lat)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), stop.Lon)
	}

	f.SetColWidth(sheet, "A", "B", 22)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "D", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// positionColumns is the header row of the history workbook.
var positionColumns = []string{"Fix Time", "Latitude", "Longitude", "Speed", "Course"}

// BuildHistoryWorkbook renders a device's historical positions as an Excel
// workbook. Speeds are converted from the wire unit to the operator's
// display unit.
func BuildHistoryWorkbook(deviceName string, positions []model.Position, speedUnit string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "History"
	f.SetSheetName("Sheet1", sheet)
	f.SetCellValue(sheet, "A1", fmt.Sprintf("History: %s", deviceName))

	for i, col := range positionColumns {
		cell := fmt.Sprintf("%c2", 'A'+i)
		f.SetCellValue(sheet, cell, col)
	}

	for i, p := range positions {
		row := i + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.FixTime.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Lat)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Lon)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), project.ConvertSpeed(p.Speed, speedUnit))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Course)
	}

	f.SetColWidth(sheet, "A", "A", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// formatDuration renders backend millisecond durations as "1h 23m".
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
