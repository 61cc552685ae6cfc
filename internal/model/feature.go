package model

import "fleetview/internal/geo"

// Geometry is the GeoJSON geometry of a map feature. Coordinates follow the
// GeoJSON convention of [lon, lat] pairs.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature is the renderer-facing structure derived from domain data: a
// geometry plus a flat properties bag with display attributes (icon key,
// label, color, rotation, clustering flag). Features are ephemeral and
// recomputed on every relevant state change.
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is the dataset attached to one map source.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features in a GeoJSON collection. A nil slice
// becomes an empty (not null) feature array so the renderer always receives a
// valid dataset.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// PointGeometry builds a GeoJSON point from a lat/lon pair.
func PointGeometry(p geo.Point) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{p.Lon, p.Lat}}
}

// LineGeometry builds a GeoJSON line string.
func LineGeometry(points []geo.Point) Geometry {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}
	return Geometry{Type: "LineString", Coordinates: coords}
}

// PolygonGeometry builds a single-ring GeoJSON polygon. The ring is closed
// explicitly as GeoJSON requires.
func PolygonGeometry(points []geo.Point) Geometry {
	ring := make([][]float64, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, []float64{p.Lon, p.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return Geometry{Type: "Polygon", Coordinates: [][][]float64{ring}}
}
