package model

import (
	"time"

	"fleetview/internal/geo"
)

// Position is a single GPS fix belonging to exactly one device. Positions are
// immutable once received; the console retains the latest live fix per device
// plus, transiently, one device's history during a playback session.
type Position struct {
	ID       uint    `json:"id,omitempty"`
	DeviceID uint    `json:"device_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	// Speed is in knots, the platform wire unit.
	Speed float64 `json:"speed"`
	// Course is the heading in degrees [0, 360).
	Course     float64    `json:"course"`
	Altitude   float64    `json:"altitude,omitempty"`
	Accuracy   float64    `json:"accuracy,omitempty"`
	FixTime    time.Time  `json:"fix_time"`
	ServerTime time.Time  `json:"server_time,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Point returns the fix coordinates.
func (p *Position) Point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// Ignition reads the ignition attribute; false when absent.
func (p *Position) Ignition() bool {
	b, _ := p.Attributes.Bool("ignition")
	return b
}

// Motion reads the motion attribute; false when absent.
func (p *Position) Motion() bool {
	b, _ := p.Attributes.Bool("motion")
	return b
}

// TotalDistance reads the accumulated odometer attribute in meters.
func (p *Position) TotalDistance() float64 {
	f, _ := p.Attributes.Float("totalDistance")
	return f
}

// Alarm reads the alarm/event marker attribute; empty when absent.
func (p *Position) Alarm() string {
	s, _ := p.Attributes.String("alarm")
	return s
}

// Event carries an alarm/event marker from the combined history report.
type Event struct {
	ID         uint       `json:"id"`
	DeviceID   uint       `json:"device_id"`
	Type       string     `json:"type"`
	EventTime  time.Time  `json:"event_time"`
	Attributes Attributes `json:"attributes,omitempty"`
}
