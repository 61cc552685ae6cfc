// Package project converts domain entities (device+position, geofence) into
// renderer-facing map features with derived display properties.
package project

import (
	"fmt"
	"log"
	"math"
	"time"

	"fleetview/internal/geometry"
	"fleetview/internal/icon"
	"fleetview/internal/model"
)

// Display defaults.
const (
	// OfflineTimeout is how stale a fix may be before the device renders as
	// offline.
	OfflineTimeout = 10 * time.Minute
	// MovingSpeedKn is the minimum speed in knots to render as moving.
	MovingSpeedKn = 1.0
	// customIconScale is the reduced scale applied to custom device icons.
	customIconScale = 0.75
)

var statusColors = map[string]string{
	model.StatusMoving:  "#4caf50",
	model.StatusStopped: "#f44336",
	model.StatusIdle:    "#ff9800",
	model.StatusOffline: "#9e9e9e",
}

const zoneColor = "#3bb2d0"

// speedFactors converts knots to the display unit.
var speedFactors = map[string]float64{
	model.UnitKn:  1.0,
	model.UnitKmh: 1.852,
	model.UnitMph: 1.15078,
}

var speedSuffixes = map[string]string{
	model.UnitKn:  "kn",
	model.UnitKmh: "km/h",
	model.UnitMph: "mph",
}

// ConvertSpeed converts a wire-unit (knots) speed to the display unit. This
// is the single conversion shared by the map label, the info popup and the
// side-panel list.
func ConvertSpeed(knots float64, unit string) float64 {
	factor, ok := speedFactors[unit]
	if !ok {
		factor = 1.0
	}
	return knots * factor
}

// SpeedLabel renders "<name> (<speed> <unit>)" with the speed rounded to the
// nearest integer.
func SpeedLabel(name string, knots float64, unit string) string {
	suffix, ok := speedSuffixes[unit]
	if !ok {
		suffix = speedSuffixes[model.UnitKn]
	}
	return fmt.Sprintf("%s (%d %s)", name, int(math.Round(ConvertSpeed(knots, unit))), suffix)
}

// IconStates exposes which icon keys are currently registered with the
// renderer. *icon.Resolver satisfies it.
type IconStates interface {
	Loaded(key string) bool
}

// Projector derives map features from application state according to the
// operator's display preferences.
type Projector struct {
	Icons IconStates
	// Unit is the speed display unit (model.UnitKn and friends).
	Unit string
	// DirectionMode controls heading-arrow visibility (model.DirectionNone,
	// model.DirectionAll, model.DirectionSelected).
	DirectionMode string
	// Now is replaceable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewProjector creates a projector with the default preferences.
func NewProjector(icons IconStates) *Projector {
	return &Projector{
		Icons:         icons,
		Unit:          model.UnitKn,
		DirectionMode: model.DirectionSelected,
		Now:           time.Now,
	}
}

func (p *Projector) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Status derives the display status of a device from its latest fix.
func (p *Projector) Status(pos *model.Position) string {
	if pos == nil || p.now().Sub(pos.FixTime) > OfflineTimeout {
		return model.StatusOffline
	}
	if pos.Speed > MovingSpeedKn {
		return model.StatusMoving
	}
	if pos.Ignition() {
		return model.StatusIdle
	}
	return model.StatusStopped
}

// ProjectPositions converts the latest live positions into point features.
// The selected device's feature is flagged non-clustering so it is rendered
// on a separate layer and never hidden inside a cluster.
func (p *Projector) ProjectPositions(devices map[uint]*model.Device, positions []*model.Position, selectedID uint) []model.Feature {
	features := make([]model.Feature, 0, len(positions))
	for _, pos := range positions {
		device, ok := devices[pos.DeviceID]
		if !ok {
			continue
		}
		features = append(features, p.positionFeature(device, pos, pos.DeviceID == selectedID))
	}
	return features
}

func (p *Projector) positionFeature(device *model.Device, pos *model.Position, selected bool) model.Feature {
	status := p.Status(pos)

	iconKey, color, scale := p.deviceIcon(device, status)

	showDirection := false
	switch p.DirectionMode {
	case model.DirectionAll:
		showDirection = pos.Course > 0
	case model.DirectionSelected:
		showDirection = selected && pos.Course > 0
	}

	props := map[string]interface{}{
		"device_id": device.ID,
		"name":      device.Name,
		"label":     SpeedLabel(device.Name, pos.Speed, p.Unit),
		"status":    status,
		"icon":      iconKey,
		"color":     color,
		"scale":     scale,
		"direction": showDirection,
		"rotation":  0.0,
		"cluster":   !selected,
	}
	if showDirection {
		props["rotation"] = pos.Course
	}
	if alarm := pos.Alarm(); alarm != "" {
		props["alarm"] = alarm
	}

	return model.Feature{
		Type:       "Feature",
		ID:         fmt.Sprintf("position-%d", device.ID),
		Geometry:   model.PointGeometry(pos.Point()),
		Properties: props,
	}
}

// deviceIcon picks icon key, color and scale. A loaded custom icon wins and
// carries no status color; otherwise the category icon gets a status-color
// suffix at normal scale.
func (p *Projector) deviceIcon(device *model.Device, status string) (string, string, float64) {
	if device.Icon != "" {
		key := icon.Resolve(device.Icon)
		if p.Icons != nil && p.Icons.Loaded(key) {
			return key, "", customIconScale
		}
	}
	key := icon.Resolve(device.Category)
	color := device.Color
	if color == "" {
		color = statusColors[status]
	}
	return key + "-" + status, color, 1.0
}

// ProjectGeofences converts geofences into features: markers as icon points,
// zones as filled polygons, routes as lines, all labelled. Hidden geofences
// and geofences with unparsable geometry are skipped, never an error.
func (p *Projector) ProjectGeofences(geofences []*model.Geofence) []model.Feature {
	features := make([]model.Feature, 0, len(geofences))
	for _, g := range geofences {
		if g.Hidden() {
			continue
		}
		shape := geometry.Parse(g.Area)
		if shape.Kind == geometry.KindUnknown {
			log.Printf("[Project] Skipping geofence %d %q: %s", g.ID, g.Name, shape.Reason)
			continue
		}
		f, ok := p.geofenceFeature(g, shape)
		if !ok {
			log.Printf("[Project] Skipping geofence %d %q: geometry %s does not match kind %s",
				g.ID, g.Name, shape.Kind, g.Kind())
			continue
		}
		features = append(features, f)
	}
	return features
}

func (p *Projector) geofenceFeature(g *model.Geofence, shape geometry.Shape) (model.Feature, bool) {
	color := g.ColorOverride()
	if color == "" {
		color = zoneColor
	}
	props := map[string]interface{}{
		"geofence_id": g.ID,
		"name":        g.Name,
		"label":       g.Name,
		"kind":        string(g.Kind()),
		"color":       color,
	}

	var geom model.Geometry
	switch shape.Kind {
	case geometry.KindCircle:
		if g.Kind() != model.KindMarker {
			return model.Feature{}, false
		}
		geom = model.PointGeometry(shape.Points[0])
		props["radius"] = shape.Radius
		props["icon"] = p.markerIcon(g)
	case geometry.KindPolygon:
		if g.Kind() != model.KindZone {
			return model.Feature{}, false
		}
		geom = model.PolygonGeometry(shape.Points)
	case geometry.KindLinestring:
		if g.Kind() != model.KindRoute {
			return model.Feature{}, false
		}
		geom = model.LineGeometry(shape.Points)
	default:
		return model.Feature{}, false
	}

	return model.Feature{
		Type:       "Feature",
		ID:         fmt.Sprintf("geofence-%d", g.ID),
		Geometry:   geom,
		Properties: props,
	}, true
}

func (p *Projector) markerIcon(g *model.Geofence) string {
	if ref := g.IconRef(); ref != "" {
		key := icon.Resolve(ref)
		if p.Icons != nil && p.Icons.Loaded(key) {
			return key
		}
	}
	return icon.DefaultKey
}
