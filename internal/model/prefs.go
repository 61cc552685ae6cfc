package model

import "time"

// Speed display units. The wire unit is always knots.
const (
	UnitKn  = "kn"
	UnitKmh = "kmh"
	UnitMph = "mph"
)

// Direction-arrow visibility modes for position features.
const (
	DirectionNone     = "none"
	DirectionAll      = "all"
	DirectionSelected = "selected"
)

// DisplayPreferences holds per-operator map display settings consumed by the
// feature projector.
type DisplayPreferences struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Operator      string    `json:"operator" gorm:"uniqueIndex;size:64;not null"`
	SpeedUnit     string    `json:"speed_unit" gorm:"size:8;default:kn"`
	DirectionMode string    `json:"direction_mode" gorm:"size:16;default:selected"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidSpeedUnit reports whether u is a supported display unit.
func ValidSpeedUnit(u string) bool {
	return u == UnitKn || u == UnitKmh || u == UnitMph
}

// ValidDirectionMode reports whether m is a supported arrow mode.
func ValidDirectionMode(m string) bool {
	return m == DirectionNone || m == DirectionAll || m == DirectionSelected
}
