package model

import "time"

// CombinedReport is one device's slice of the combined history report:
// full-detail positions for the table and popup, a coordinate-only route for
// map rendering, and event markers.
type CombinedReport struct {
	DeviceID  uint       `json:"device_id"`
	Positions []Position `json:"positions"`
	// Route holds [lon, lat] pairs, the map rendering order.
	Route  [][]float64 `json:"route"`
	Events []Event     `json:"events"`
}

// StopReport is one detected stop from the stops report.
type StopReport struct {
	DeviceID  uint      `json:"device_id,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	// Duration is in milliseconds, as the backend reports it.
	Duration int64   `json:"duration"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
}
