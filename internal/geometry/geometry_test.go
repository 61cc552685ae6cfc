package geometry

import (
	"testing"

	"fleetview/internal/geo"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Shape
	}{
		{
			"Circle",
			"CIRCLE (10 20, 500)",
			Shape{Kind: KindCircle, Points: []geo.Point{{Lat: 10, Lon: 20}}, Radius: 500},
		},
		{
			"Circle No Space After Keyword",
			"CIRCLE(48.1 11.5, 250.5)",
			Shape{Kind: KindCircle, Points: []geo.Point{{Lat: 48.1, Lon: 11.5}}, Radius: 250.5},
		},
		{
			"Polygon Closed Ring Drops Closing Point",
			"POLYGON ((0 0, 0 1, 1 1, 0 0))",
			Shape{Kind: KindPolygon, Points: []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}}},
		},
		{
			"Linestring",
			"LINESTRING (1 2, 3 4, 5 6)",
			Shape{Kind: KindLinestring, Points: []geo.Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}, {Lat: 5, Lon: 6}}},
		},
		{
			"Lowercase Prefix",
			"circle (1 2, 3)",
			Shape{Kind: KindCircle, Points: []geo.Point{{Lat: 1, Lon: 2}}, Radius: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Kind != tt.expected.Kind {
				t.Fatalf("Parse(%q).Kind = %s, want %s (reason: %s)", tt.input, got.Kind, tt.expected.Kind, got.Reason)
			}
			if got.Radius != tt.expected.Radius {
				t.Errorf("Radius = %f, want %f", got.Radius, tt.expected.Radius)
			}
			if len(got.Points) != len(tt.expected.Points) {
				t.Fatalf("got %d points, want %d", len(got.Points), len(tt.expected.Points))
			}
			for i, p := range got.Points {
				if p != tt.expected.Points[i] {
					t.Errorf("point %d = %+v, want %+v", i, p, tt.expected.Points[i])
				}
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Garbage", "not a geometry"},
		{"Circle Missing Radius", "CIRCLE (10 20)"},
		{"Circle Zero Radius", "CIRCLE (10 20, 0)"},
		{"Circle Bad Number", "CIRCLE (ten twenty, 5)"},
		{"Circle No Parens", "CIRCLE 10 20, 500"},
		{"Polygon Two Points", "POLYGON ((0 0, 1 1, 0 0))"},
		{"Polygon Single Parens", "POLYGON (0 0, 0 1, 1 1)"},
		{"Linestring One Point", "LINESTRING (1 2)"},
		{"Linestring Odd Coords", "LINESTRING (1 2 3, 4 5)"},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Kind != KindUnknown {
				t.Errorf("Parse(%q).Kind = %s, want unknown", tt.input, got.Kind)
			}
			if got.Reason == "" {
				t.Errorf("Parse(%q) has empty Reason", tt.input)
			}
		})
	}
}

func TestCircleRoundTrip(t *testing.T) {
	inputs := []string{
		"CIRCLE (10 20, 500)",
		"CIRCLE (-33.865 151.2094, 1250.5)",
		"CIRCLE (0.000001 -0.000001, 1)",
	}
	for _, input := range inputs {
		shape := Parse(input)
		if shape.Kind != KindCircle {
			t.Fatalf("Parse(%q) kind = %s", input, shape.Kind)
		}
		text, err := Format(shape)
		if err != nil {
			t.Fatalf("Format: %v", err)
		}
		again := Parse(text)
		if again.Kind != KindCircle || again.Points[0] != shape.Points[0] || again.Radius != shape.Radius {
			t.Errorf("round trip %q -> %q changed shape: %+v vs %+v", input, text, shape, again)
		}
	}
}

func TestPolygonRoundTripPreservesVertices(t *testing.T) {
	input := "POLYGON ((0 0, 0 1, 1 1, 1 0, 0 0))"
	shape := Parse(input)
	if shape.Kind != KindPolygon {
		t.Fatalf("Parse kind = %s (reason %s)", shape.Kind, shape.Reason)
	}
	if len(shape.Points) != 4 {
		t.Fatalf("got %d vertices, want 4", len(shape.Points))
	}

	text, err := Format(shape)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if text != input {
		t.Errorf("Format = %q, want %q", text, input)
	}

	again := Parse(text)
	if len(again.Points) != len(shape.Points) {
		t.Fatalf("round trip vertex count = %d, want %d", len(again.Points), len(shape.Points))
	}
	for i := range shape.Points {
		if again.Points[i] != shape.Points[i] {
			t.Errorf("vertex %d changed: %+v vs %+v", i, again.Points[i], shape.Points[i])
		}
	}
}

func TestFormatIncomplete(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"Circle Without Radius", Shape{Kind: KindCircle, Points: []geo.Point{{Lat: 1, Lon: 2}}}},
		{"Polygon Two Points", Shape{Kind: KindPolygon, Points: []geo.Point{{}, {Lat: 1, Lon: 1}}}},
		{"Linestring One Point", Shape{Kind: KindLinestring, Points: []geo.Point{{}}}},
		{"Unknown", Shape{Kind: KindUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Format(tt.shape); err == nil {
				t.Errorf("Format(%+v) expected error", tt.shape)
			}
			if tt.shape.Complete() {
				t.Errorf("Complete(%+v) = true, want false", tt.shape)
			}
		})
	}
}
