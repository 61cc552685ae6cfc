package service

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetview/internal/model"
)

func TestBuildStopsWorkbook(t *testing.T) {
	start := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	stops := []model.StopReport{
		{
			StartTime: start,
			EndTime:   start.Add(95 * time.Minute),
			Duration:  95 * 60 * 1000,
			Address:   "Depot Gate 3",
			Lat:       10.5,
			Lon:       20.25,
		},
		{
			StartTime: start.Add(3 * time.Hour),
			EndTime:   start.Add(3*time.Hour + 12*time.Minute),
			Duration:  12 * 60 * 1000,
			Address:   "Customer A",
		},
	}

	buf, err := BuildStopsWorkbook("Truck 7", stops)
	if err != nil {
		t.Fatalf("BuildStopsWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("workbook does not reopen: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("Stops", "A1"); got != "Stops: Truck 7" {
		t.Errorf("title = %q", got)
	}
	if got, _ := f.GetCellValue("Stops", "D2"); got != "Address" {
		t.Errorf("header D2 = %q, want Address", got)
	}
	if got, _ := f.GetCellValue("Stops", "C3"); got != "1h 35m" {
		t.Errorf("duration C3 = %q, want 1h 35m", got)
	}
	if got, _ := f.GetCellValue("Stops", "C4"); got != "12m" {
		t.Errorf("duration C4 = %q, want 12m", got)
	}
	if got, _ := f.GetCellValue("Stops", "D4"); got != "Customer A" {
		t.Errorf("address D4 = %q", got)
	}
}

func TestBuildHistoryWorkbookConvertsSpeed(t *testing.T) {
	positions := []model.Position{
		{Lat: 1, Lon: 2, Speed: 10, Course: 90, FixTime: time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)},
	}

	buf, err := BuildHistoryWorkbook("Truck 7", positions, model.UnitKmh)
	if err != nil {
		t.Fatalf("BuildHistoryWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("workbook does not reopen: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("History", "D3"); got != "18.52" {
		t.Errorf("speed D3 = %q, want 18.52 (10 kn in km/h)", got)
	}
	if got, _ := f.GetCellValue("History", "A3"); got != "2026-08-01T08:00:00Z" {
		t.Errorf("fix time A3 = %q", got)
	}
}
