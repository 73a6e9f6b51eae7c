package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTopologyUnavailable is returned when the base map document is missing,
// unreadable, or contains no features.
var ErrTopologyUnavailable = errors.New("map topology unavailable")

// DefaultNameProperty is the feature property holding the country name in
// Natural Earth admin-0 exports.
const DefaultNameProperty = "ADMIN"

// Shape is one polygon of a feature with its holes.
type Shape struct {
	Outer Polygon
	Holes []Polygon
}

// Contains reports whether pt is inside the outer ring and outside every hole.
func (s Shape) Contains(pt LatLng) bool {
	if !s.Outer.Contains(pt) {
		return false
	}
	for _, h := range s.Holes {
		if h.Contains(pt) {
			return false
		}
	}
	return true
}

// Feature is a named boundary from the base topology.
type Feature struct {
	Name   string
	Shapes []Shape

	// raw is the feature exactly as read, re-emitted by MarshalJSON.
	raw json.RawMessage
}

// Bounds returns the bounding box over all outer rings.
func (f Feature) Bounds() Bounds {
	var b Bounds
	for _, s := range f.Shapes {
		for _, v := range s.Outer.Vertices {
			b.Extend(v)
		}
	}
	return b
}

// LabelPoint returns the centroid of the feature's largest shape.
func (f Feature) LabelPoint() LatLng {
	best := -1.0
	var pt LatLng
	for _, s := range f.Shapes {
		if a := s.Outer.Area(); a > best {
			best = a
			pt = s.Outer.Centroid()
		}
	}
	return pt
}

// Contains reports whether pt falls inside any of the feature's shapes.
func (f Feature) Contains(pt LatLng) bool {
	for _, s := range f.Shapes {
		if s.Contains(pt) {
			return true
		}
	}
	return false
}

// Topology is the base geographic layer: country boundaries keyed by name.
type Topology struct {
	Features []Feature
	index    map[string]int
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	Properties map[string]any `json:"properties"`
	Geometry   *struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// LoadTopology parses a GeoJSON FeatureCollection. Each feature is named by
// the string value of nameProperty; Polygon and MultiPolygon geometries are
// decoded, other geometry types produce a feature without shapes.
func LoadTopology(r io.Reader, nameProperty string) (*Topology, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}

	var fc rawCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: parsing GeoJSON: %v", ErrTopologyUnavailable, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrTopologyUnavailable)
	}

	t := &Topology{index: make(map[string]int, len(fc.Features))}
	for i, raw := range fc.Features {
		var rf rawFeature
		if err := json.Unmarshal(raw, &rf); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrTopologyUnavailable, i, err)
		}
		name, _ := rf.Properties[nameProperty].(string)

		var shapes []Shape
		if rf.Geometry != nil {
			var err error
			shapes, err = decodeGeometry(rf.Geometry.Type, rf.Geometry.Coordinates)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %d (%s): %v", ErrTopologyUnavailable, i, name, err)
			}
		}
		t.add(Feature{Name: name, Shapes: shapes, raw: raw})
	}
	return t, nil
}

func (t *Topology) add(f Feature) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if f.Name != "" {
		if _, dup := t.index[f.Name]; !dup {
			t.index[f.Name] = len(t.Features)
		}
	}
	t.Features = append(t.Features, f)
}

func decodeGeometry(kind string, coords json.RawMessage) ([]Shape, error) {
	switch kind {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(coords, &rings); err != nil {
			return nil, err
		}
		s, ok := shapeFromRings(rings)
		if !ok {
			return nil, nil
		}
		return []Shape{s}, nil
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(coords, &polys); err != nil {
			return nil, err
		}
		shapes := make([]Shape, 0, len(polys))
		for _, rings := range polys {
			if s, ok := shapeFromRings(rings); ok {
				shapes = append(shapes, s)
			}
		}
		return shapes, nil
	default:
		return nil, nil
	}
}

func shapeFromRings(rings [][][]float64) (Shape, bool) {
	if len(rings) == 0 {
		return Shape{}, false
	}
	s := Shape{Outer: ringToPolygon(rings[0])}
	for _, h := range rings[1:] {
		s.Holes = append(s.Holes, ringToPolygon(h))
	}
	return s, !s.Outer.IsEmpty()
}

// ringToPolygon converts GeoJSON [lng, lat] positions and drops the closing
// vertex when it repeats the first.
func ringToPolygon(ring [][]float64) Polygon {
	pts := make([]LatLng, 0, len(ring))
	for _, pos := range ring {
		if len(pos) < 2 {
			continue
		}
		pts = append(pts, LatLng{Lat: pos[1], Lng: pos[0]})
	}
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return Polygon{Vertices: pts}
}

// Len returns the number of features.
func (t *Topology) Len() int {
	return len(t.Features)
}

// Feature returns the first feature with the given name.
func (t *Topology) Feature(name string) (Feature, bool) {
	i, ok := t.index[name]
	if !ok {
		return Feature{}, false
	}
	return t.Features[i], true
}

// Filter returns a new topology holding only the features keep accepts.
func (t *Topology) Filter(keep func(name string) bool) *Topology {
	out := &Topology{index: make(map[string]int)}
	for _, f := range t.Features {
		if keep(f.Name) {
			out.add(f)
		}
	}
	return out
}

// Bounds returns the bounding box over every feature.
func (t *Topology) Bounds() Bounds {
	var b Bounds
	for _, f := range t.Features {
		fb := f.Bounds()
		if fb.Valid() {
			b.Extend(fb.Min)
			b.Extend(fb.Max)
		}
	}
	return b
}

// CountryAt returns the name of the first feature containing pt.
func (t *Topology) CountryAt(pt LatLng) (string, bool) {
	for _, f := range t.Features {
		if !f.Bounds().Contains(pt) {
			continue
		}
		if f.Contains(pt) {
			return f.Name, true
		}
	}
	return "", false
}

// MarshalJSON re-emits the topology as a GeoJSON FeatureCollection using the
// features' original encoding.
func (t *Topology) MarshalJSON() ([]byte, error) {
	features := make([]json.RawMessage, 0, len(t.Features))
	for _, f := range t.Features {
		if f.raw != nil {
			features = append(features, f.raw)
		}
	}
	return json.Marshal(rawCollection{Type: "FeatureCollection", Features: features})
}
