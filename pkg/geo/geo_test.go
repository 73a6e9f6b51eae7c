package geo

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// --- LatLng tests ---

func TestDistanceKm(t *testing.T) {
	// One degree of latitude is ~111.2 km.
	d := Pt(0, 0).DistanceKm(Pt(1, 0))
	if !approxEqual(d, 111.19, 0.1) {
		t.Errorf("expected ~111.19 km, got %f", d)
	}
	if Pt(10, 10).DistanceKm(Pt(10, 10)) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestLatLngValid(t *testing.T) {
	if !Pt(-33.4, -70.6).Valid() {
		t.Error("Santiago should be a valid coordinate")
	}
	if Pt(91, 0).Valid() || Pt(0, 181).Valid() {
		t.Error("out-of-range coordinates should be invalid")
	}
}

func TestBoundsExtendAndPad(t *testing.T) {
	var b Bounds
	if b.Valid() {
		t.Fatal("zero bounds should be invalid")
	}
	b.Extend(Pt(-10, -20))
	b.Extend(Pt(10, 20))
	if !b.Valid() {
		t.Fatal("bounds should be valid after Extend")
	}
	p := b.Pad(0.1)
	if !approxEqual(p.Min.Lat, -12, tolerance) || !approxEqual(p.Max.Lng, 24, tolerance) {
		t.Errorf("unexpected padded bounds %+v", p)
	}
	c := b.Center()
	if !approxEqual(c.Lat, 0, tolerance) || !approxEqual(c.Lng, 0, tolerance) {
		t.Errorf("expected center (0,0), got %+v", c)
	}
	if !b.Contains(Pt(0, 0)) || b.Contains(Pt(11, 0)) {
		t.Error("Contains disagrees with bounds")
	}
}

// --- Polygon tests ---

func square() Polygon {
	return NewPolygon(Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0))
}

func TestPolygonArea(t *testing.T) {
	if !approxEqual(square().Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", square().Area())
	}
	tri := NewPolygon(Pt(0, 0), Pt(0, 10), Pt(10, 0))
	if !approxEqual(tri.Area(), 50, tolerance) {
		t.Errorf("expected area 50, got %f", tri.Area())
	}
}

func TestPolygonCentroid(t *testing.T) {
	c := square().Centroid()
	if !approxEqual(c.Lat, 5, tolerance) || !approxEqual(c.Lng, 5, tolerance) {
		t.Errorf("expected centroid (5,5), got (%f,%f)", c.Lat, c.Lng)
	}
}

func TestPolygonContains(t *testing.T) {
	sq := square()
	if !sq.Contains(Pt(5, 5)) {
		t.Error("expected (5,5) inside square")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("expected (15,5) outside square")
	}
	if sq.Contains(Pt(-1, 5)) {
		t.Error("expected (-1,5) outside square")
	}
}

func TestPolygonBounds(t *testing.T) {
	b := NewPolygon(Pt(-5, -3), Pt(10, 0), Pt(7, 12)).Bounds()
	if !approxEqual(b.Min.Lat, -5, tolerance) || !approxEqual(b.Min.Lng, -3, tolerance) {
		t.Errorf("expected min (-5,-3), got %+v", b.Min)
	}
	if !approxEqual(b.Max.Lat, 10, tolerance) || !approxEqual(b.Max.Lng, 12, tolerance) {
		t.Errorf("expected max (10,12), got %+v", b.Max)
	}
}

// --- Topology tests ---

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ADMIN": "Chile"},
     "geometry": {"type": "Polygon", "coordinates": [[[-75,-56],[-66,-56],[-66,-17],[-75,-17],[-75,-56]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Argentina"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[-66,-55],[-53,-55],[-53,-22],[-66,-22],[-66,-55]],
         [[-60,-40],[-58,-40],[-58,-38],[-60,-38],[-60,-40]]],
        [[[-53,-56],[-51,-56],[-51,-54],[-53,-54],[-53,-56]]]
     ]}},
    {"type": "Feature", "properties": {"ADMIN": "Antarctica"},
     "geometry": {"type": "Point", "coordinates": [0,-90]}}
  ]
}`

func loadTestTopology(t *testing.T) *Topology {
	t.Helper()
	topo, err := LoadTopology(strings.NewReader(testGeoJSON), "")
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}
	return topo
}

func TestLoadTopology(t *testing.T) {
	topo := loadTestTopology(t)
	if topo.Len() != 3 {
		t.Fatalf("expected 3 features, got %d", topo.Len())
	}
	ar, ok := topo.Feature("Argentina")
	if !ok {
		t.Fatal("Argentina missing")
	}
	if len(ar.Shapes) != 2 {
		t.Errorf("expected 2 shapes for Argentina, got %d", len(ar.Shapes))
	}
	if ar.Shapes[0].Outer.Len() != 4 {
		t.Errorf("closing vertex should be dropped, got %d vertices", ar.Shapes[0].Outer.Len())
	}
	if len(ar.Shapes[0].Holes) != 1 {
		t.Errorf("expected 1 hole, got %d", len(ar.Shapes[0].Holes))
	}
	an, _ := topo.Feature("Antarctica")
	if len(an.Shapes) != 0 {
		t.Error("point geometry should produce no shapes")
	}
}

func TestLoadTopologyErrors(t *testing.T) {
	cases := map[string]string{
		"malformed": `{"type":`,
		"empty":     `{"type":"FeatureCollection","features":[]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadTopology(strings.NewReader(doc), "ADMIN")
			if !errors.Is(err, ErrTopologyUnavailable) {
				t.Errorf("expected ErrTopologyUnavailable, got %v", err)
			}
		})
	}
}

func TestTopologyCountryAt(t *testing.T) {
	topo := loadTestTopology(t)

	tests := []struct {
		pt   LatLng
		want string
		ok   bool
	}{
		{Pt(-33.4, -70.6), "Chile", true},
		{Pt(-34.6, -58.4), "Argentina", true},
		{Pt(-39, -59), "", false}, // inside the hole
		{Pt(-55, -52), "Argentina", true},
		{Pt(10, 10), "", false},
	}
	for _, tt := range tests {
		got, ok := topo.CountryAt(tt.pt)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CountryAt(%v) = %q, %v; want %q, %v", tt.pt, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTopologyFilterAndMarshal(t *testing.T) {
	topo := loadTestTopology(t)
	keep := map[string]bool{"Chile": true, "Argentina": true}
	filtered := topo.Filter(func(name string) bool { return keep[name] })
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 features, got %d", filtered.Len())
	}

	b := filtered.Bounds()
	if !approxEqual(b.Min.Lng, -75, tolerance) || !approxEqual(b.Max.Lat, -17, tolerance) {
		t.Errorf("unexpected bounds %+v", b)
	}

	data, err := json.Marshal(filtered)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := LoadTopology(strings.NewReader(string(data)), "ADMIN")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Len() != 2 {
		t.Errorf("round-tripped topology has %d features", again.Len())
	}
}

func TestFeatureLabelPoint(t *testing.T) {
	topo := loadTestTopology(t)
	cl, _ := topo.Feature("Chile")
	lp := cl.LabelPoint()
	if !approxEqual(lp.Lat, -36.5, tolerance) || !approxEqual(lp.Lng, -70.5, tolerance) {
		t.Errorf("unexpected label point %+v", lp)
	}
}
