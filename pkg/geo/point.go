package geo

import "math"

// LatLng is a geographic coordinate in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pt is a shorthand constructor for LatLng.
func Pt(lat, lng float64) LatLng {
	return LatLng{Lat: lat, Lng: lng}
}

// Add returns p + q.
func (p LatLng) Add(q LatLng) LatLng {
	return LatLng{p.Lat + q.Lat, p.Lng + q.Lng}
}

// Sub returns p - q.
func (p LatLng) Sub(q LatLng) LatLng {
	return LatLng{p.Lat - q.Lat, p.Lng - q.Lng}
}

// Scale returns p * s.
func (p LatLng) Scale(s float64) LatLng {
	return LatLng{p.Lat * s, p.Lng * s}
}

// Valid reports whether the coordinate lies within the WGS84 range.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Lerp returns the linear interpolation between p and q at t in [0,1].
func (p LatLng) Lerp(q LatLng, t float64) LatLng {
	return LatLng{
		Lat: p.Lat + (q.Lat-p.Lat)*t,
		Lng: p.Lng + (q.Lng-p.Lng)*t,
	}
}

// MidPoint returns the midpoint between p and q in degree space.
func MidPoint(p, q LatLng) LatLng {
	return p.Lerp(q, 0.5)
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance from p to q.
func (p LatLng) DistanceKm(q LatLng) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (q.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Bounds is an axis-aligned box in degree space.
type Bounds struct {
	Min LatLng `json:"min"`
	Max LatLng `json:"max"`
	set bool
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p LatLng) {
	if !b.set {
		b.Min, b.Max, b.set = p, p, true
		return
	}
	b.Min.Lat = math.Min(b.Min.Lat, p.Lat)
	b.Min.Lng = math.Min(b.Min.Lng, p.Lng)
	b.Max.Lat = math.Max(b.Max.Lat, p.Lat)
	b.Max.Lng = math.Max(b.Max.Lng, p.Lng)
}

// Valid reports whether at least one point has been added.
func (b Bounds) Valid() bool {
	return b.set
}

// Pad returns the box enlarged on every side by ratio of its span.
func (b Bounds) Pad(ratio float64) Bounds {
	if !b.set {
		return b
	}
	dLat := (b.Max.Lat - b.Min.Lat) * ratio
	dLng := (b.Max.Lng - b.Min.Lng) * ratio
	return Bounds{
		Min: LatLng{b.Min.Lat - dLat, b.Min.Lng - dLng},
		Max: LatLng{b.Max.Lat + dLat, b.Max.Lng + dLng},
		set: true,
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return MidPoint(b.Min, b.Max)
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p LatLng) bool {
	return b.set &&
		p.Lat >= b.Min.Lat && p.Lat <= b.Max.Lat &&
		p.Lng >= b.Min.Lng && p.Lng <= b.Max.Lng
}
