package model

// GeofenceKind discriminates the three geofence shapes. The backend stores it
// in attributes.type; the geometry string is trusted to be consistent with it
// (a CIRCLE is a marker, a POLYGON a zone, a LINESTRING a route).
type GeofenceKind string

const (
	KindMarker  GeofenceKind = "marker"
	KindZone    GeofenceKind = "zone"
	KindRoute   GeofenceKind = "route"
	KindUnknown GeofenceKind = "unknown"
)

// UngroupedID is the reserved pseudo-group id synthesized client-side for
// geofences without a group. It is never persisted and must never be sent to
// the backend as a real id.
const UngroupedID = 0

// Geofence is a named geographic area or point of interest, stored as a
// WKT-like geometry string plus an attribute bag.
type Geofence struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	// GroupID is 0 for ungrouped geofences; the backend also sends null,
	// which decodes to 0.
	GroupID    uint       `json:"group_id,omitempty"`
	Area       string     `json:"area"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Kind reads the attributes.type discriminator.
func (g *Geofence) Kind() GeofenceKind {
	s, ok := g.Attributes.String("type")
	if !ok {
		return KindUnknown
	}
	switch GeofenceKind(s) {
	case KindMarker, KindZone, KindRoute:
		return GeofenceKind(s)
	default:
		return KindUnknown
	}
}

// Hidden reports whether the geofence is excluded from rendering.
func (g *Geofence) Hidden() bool {
	b, _ := g.Attributes.Bool("hide")
	return b
}

// IconRef returns the custom icon reference, empty when unset.
func (g *Geofence) IconRef() string {
	s, _ := g.Attributes.String("icon")
	return s
}

// ColorOverride returns the display color, empty when unset.
func (g *Geofence) ColorOverride() string {
	s, _ := g.Attributes.String("color")
	return s
}

// WireGroupID maps the synthetic Ungrouped id back to null for requests sent
// to the backend.
func (g *Geofence) WireGroupID() *uint {
	if g.GroupID == UngroupedID {
		return nil
	}
	id := g.GroupID
	return &id
}

// Group buckets geofences for display. ID 0 is the synthetic Ungrouped entry.
type Group struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
