// Package nearest computes distance-sorted nearest geofences for a device
// position, for display purposes only.
package nearest

import (
	"math"
	"sort"

	"fleetview/internal/geo"
	"fleetview/internal/geometry"
	"fleetview/internal/model"
)

// Result names a geofence and its computed distance.
type Result struct {
	Name           string  `json:"name"`
	GeofenceID     uint    `json:"geofence_id"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Nearest returns the closest geofence of the requested kind, or nil when no
// geofence of that kind exists or none could be distance-computed.
func Nearest(pos geo.Point, geofences []*model.Geofence, kind model.GeofenceKind) *Result {
	results := Sorted(pos, geofences, kind)
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// Sorted returns all distance-computable geofences of the requested kind in
// ascending distance order. Ties keep the original array order (stable sort).
// Geofences with malformed geometry are skipped.
func Sorted(pos geo.Point, geofences []*model.Geofence, kind model.GeofenceKind) []Result {
	var results []Result
	for _, g := range geofences {
		if g.Kind() != kind {
			continue
		}
		d, ok := distance(pos, g)
		if !ok {
			continue
		}
		results = append(results, Result{Name: g.Name, GeofenceID: g.ID, DistanceMeters: d})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results
}

func distance(pos geo.Point, g *model.Geofence) (float64, bool) {
	shape := geometry.Parse(g.Area)
	switch shape.Kind {
	case geometry.KindCircle:
		// Distance to the circle boundary, not its center.
		return math.Abs(geo.Distance(pos, shape.Points[0]) - shape.Radius), true
	case geometry.KindPolygon:
		// Minimum vertex distance. Known approximation of true
		// point-to-polygon distance, kept for compatibility with the
		// platform UI.
		min := math.Inf(1)
		for _, p := range shape.Points {
			if d := geo.Distance(pos, p); d < min {
				min = d
			}
		}
		if math.IsInf(min, 1) {
			return 0, false
		}
		return min, true
	default:
		return 0, false
	}
}
