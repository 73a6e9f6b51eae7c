package geo

import "math"

// Polygon is a closed ring of coordinates. The first vertex is not repeated
// at the end; GeoJSON rings are trimmed on load.
//
// Area and centroid are computed in planar degree space, which is adequate
// for label placement and hit-testing but not for surface measurements.
type Polygon struct {
	Vertices []LatLng
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...LatLng) Polygon {
	return Polygon{Vertices: pts}
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.Vertices)
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// SignedArea returns the signed area using the shoelace formula, with
// longitude as x and latitude as y.
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p.Vertices[i].Lng * p.Vertices[j].Lat
		area -= p.Vertices[j].Lng * p.Vertices[i].Lat
	}
	return area / 2
}

// Area returns the unsigned area of the polygon in square degrees.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Centroid returns the centroid of the polygon.
func (p Polygon) Centroid() LatLng {
	n := len(p.Vertices)
	if n == 0 {
		return LatLng{}
	}
	a := p.SignedArea()
	if n < 3 || math.Abs(a) < 1e-12 {
		// Degenerate: return average.
		sum := LatLng{}
		for _, v := range p.Vertices {
			sum = sum.Add(v)
		}
		return sum.Scale(1.0 / float64(n))
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p.Vertices[i].Lng*p.Vertices[j].Lat - p.Vertices[j].Lng*p.Vertices[i].Lat
		cx += (p.Vertices[i].Lng + p.Vertices[j].Lng) * cross
		cy += (p.Vertices[i].Lat + p.Vertices[j].Lat) * cross
	}
	f := 1.0 / (6.0 * a)
	return LatLng{Lat: cy * f, Lng: cx * f}
}

// Bounds returns the bounding box of the polygon.
func (p Polygon) Bounds() Bounds {
	var b Bounds
	for _, v := range p.Vertices {
		b.Extend(v)
	}
	return b
}

// Contains returns true if the point is inside the polygon using ray casting.
func (p Polygon) Contains(pt LatLng) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := p.Vertices[i]
		vj := p.Vertices[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) &&
			pt.Lng < (vj.Lng-vi.Lng)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}
