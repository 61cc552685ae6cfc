// Package geometry parses and formats the WKT-like geofence area strings
// exchanged with the platform backend: CIRCLE (lat lon, radius),
// POLYGON ((lat lon, ...)) and LINESTRING (lat lon, ...).
package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"fleetview/internal/geo"
)

// Kind identifies the shape of a parsed area string.
type Kind string

const (
	KindCircle     Kind = "circle"
	KindPolygon    Kind = "polygon"
	KindLinestring Kind = "linestring"
	KindUnknown    Kind = "unknown"
)

// Shape is the tagged result of parsing an area string. Callers must check
// Kind != KindUnknown before using the coordinates; Parse never returns an
// error so a malformed geofence cannot take down a render pass.
type Shape struct {
	Kind   Kind
	Points []geo.Point
	Radius float64
	// Reason describes why parsing failed. Set only when Kind is KindUnknown.
	Reason string
}

func unknown(reason string) Shape {
	return Shape{Kind: KindUnknown, Reason: reason}
}

// Parse converts an area string into a Shape. Polygon rings arrive closed
// from the backend; the duplicated closing point is dropped so Points holds
// each vertex exactly once.
func Parse(text string) Shape {
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "CIRCLE"):
		return parseCircle(trimmed[len("CIRCLE"):])
	case strings.HasPrefix(upper, "POLYGON"):
		return parsePolygon(trimmed[len("POLYGON"):])
	case strings.HasPrefix(upper, "LINESTRING"):
		return parseLinestring(trimmed[len("LINESTRING"):])
	case trimmed == "":
		return unknown("empty area string")
	default:
		return unknown("unrecognized geometry prefix")
	}
}

// Format converts a shape back into an area string. Polygon rings are always
// closed explicitly because the backend rejects open rings. Incomplete shapes
// (too few points for their kind) return an error and must not be sent to the
// backend.
func Format(s Shape) (string, error) {
	switch s.Kind {
	case KindCircle:
		if len(s.Points) < 1 {
			return "", fmt.Errorf("circle requires a center point")
		}
		if s.Radius <= 0 {
			return "", fmt.Errorf("circle requires a positive radius")
		}
		c := s.Points[0]
		return fmt.Sprintf("CIRCLE (%s %s, %s)",
			formatCoord(c.Lat), formatCoord(c.Lon), formatCoord(s.Radius)), nil
	case KindPolygon:
		if len(s.Points) < 3 {
			return "", fmt.Errorf("polygon requires at least 3 points, got %d", len(s.Points))
		}
		pairs := make([]string, 0, len(s.Points)+1)
		for _, p := range s.Points {
			pairs = append(pairs, formatCoord(p.Lat)+" "+formatCoord(p.Lon))
		}
		// Close the ring.
		pairs = append(pairs, pairs[0])
		return fmt.Sprintf("POLYGON ((%s))", strings.Join(pairs, ", ")), nil
	case KindLinestring:
		if len(s.Points) < 2 {
			return "", fmt.Errorf("linestring requires at least 2 points, got %d", len(s.Points))
		}
		pairs := make([]string, 0, len(s.Points))
		for _, p := range s.Points {
			pairs = append(pairs, formatCoord(p.Lat)+" "+formatCoord(p.Lon))
		}
		return fmt.Sprintf("LINESTRING (%s)", strings.Join(pairs, ", ")), nil
	default:
		return "", fmt.Errorf("cannot format geometry of kind %q", s.Kind)
	}
}

// Complete reports whether the shape has enough points to be rendered and
// persisted: 1 for circles, 3 for polygons, 2 for linestrings.
func (s Shape) Complete() bool {
	switch s.Kind {
	case KindCircle:
		return len(s.Points) >= 1 && s.Radius > 0
	case KindPolygon:
		return len(s.Points) >= 3
	case KindLinestring:
		return len(s.Points) >= 2
	default:
		return false
	}
}

func parseCircle(rest string) Shape {
	inner, ok := stripParens(rest)
	if !ok {
		return unknown("circle: missing parentheses")
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return unknown("circle: expected center and radius")
	}
	center, err := parsePoint(parts[0])
	if err != nil {
		return unknown("circle: " + err.Error())
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return unknown("circle: invalid radius")
	}
	if radius <= 0 {
		return unknown("circle: radius must be positive")
	}
	return Shape{Kind: KindCircle, Points: []geo.Point{center}, Radius: radius}
}

func parsePolygon(rest string) Shape {
	outer, ok := stripParens(rest)
	if !ok {
		return unknown("polygon: missing parentheses")
	}
	inner, ok := stripParens(outer)
	if !ok {
		return unknown("polygon: missing ring parentheses")
	}
	points, err := parsePoints(inner)
	if err != nil {
		return unknown("polygon: " + err.Error())
	}
	// Drop the duplicated closing point of a closed ring.
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(points) < 3 {
		return unknown("polygon: fewer than 3 distinct points")
	}
	return Shape{Kind: KindPolygon, Points: points}
}

func parseLinestring(rest string) Shape {
	inner, ok := stripParens(rest)
	if !ok {
		return unknown("linestring: missing parentheses")
	}
	points, err := parsePoints(inner)
	if err != nil {
		return unknown("linestring: " + err.Error())
	}
	if len(points) < 2 {
		return unknown("linestring: fewer than 2 points")
	}
	return Shape{Kind: KindLinestring, Points: points}
}

// stripParens removes one balanced pair of surrounding parentheses.
func stripParens(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func parsePoints(s string) ([]geo.Point, error) {
	parts := strings.Split(s, ",")
	points := make([]geo.Point, 0, len(parts))
	for _, part := range parts {
		p, err := parsePoint(part)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePoint(s string) (geo.Point, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return geo.Point{}, fmt.Errorf("expected \"lat lon\" pair, got %q", s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q", fields[0])
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q", fields[1])
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
