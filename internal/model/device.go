package model

import "time"

// Display status of a device, derived from its latest position.
const (
	StatusMoving  = "moving"
	StatusStopped = "stopped"
	StatusIdle    = "idle"
	StatusOffline = "offline"
)

// Device represents a GPS tracking device as served by the platform backend.
// The console holds a read-mostly cached copy keyed by ID, refreshed only by
// backend updates.
type Device struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	// Category is the vehicle/asset type used to pick the default icon.
	Category string `json:"category"`
	// Icon is an optional custom icon reference (asset filename). Empty means
	// the category default.
	Icon string `json:"icon,omitempty"`
	// Color is an optional status-color override.
	Color      string     `json:"color,omitempty"`
	Disabled   bool       `json:"disabled,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Attributes is the free-form key/value bag carried by devices, positions and
// geofences. Known keys are read through the typed accessors below; unknown
// keys pass through untouched for forward compatibility.
type Attributes map[string]interface{}

// Bool reads a boolean attribute.
func (a Attributes) Bool(key string) (bool, bool) {
	v, ok := a[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float reads a numeric attribute. JSON numbers decode as float64.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// String reads a string attribute.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
