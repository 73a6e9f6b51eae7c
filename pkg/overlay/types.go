package overlay

import (
	"github.com/ChicagoDave/latamgrid/pkg/geo"
	"github.com/ChicagoDave/latamgrid/pkg/heatmap"
)

// Overlay is everything a map renderer draws for one snapshot and metric.
type Overlay struct {
	Metadata Metadata       `json:"metadata"`
	Markers  []Marker       `json:"markers"`
	Lines    []Segment      `json:"lines"`
	Regions  []Region       `json:"regions"`
	Legend   heatmap.Legend `json:"legend"`
	// Bounds covers every marker and region; renderers fit the view to it.
	Bounds *BoundsBox `json:"bounds,omitempty"`
}

// Metadata identifies what the overlay was built from.
type Metadata struct {
	Key           string  `json:"key"`
	SnapshotID    string  `json:"snapshot_id"`
	Metric        string  `json:"metric"`
	Title         string  `json:"title"`
	Unit          string  `json:"unit"`
	MaxCapacityMW float64 `json:"max_capacity_mw"`
	MaxFlowMW     float64 `json:"max_flow_mw"`
	GeneratedAt   string  `json:"generated_at"`
}

// Marker is a country node.
type Marker struct {
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	Position geo.LatLng `json:"position"`
	Value    float64    `json:"value"`
	Color    string     `json:"color"`
}

// Segment is a drawable transmission line.
type Segment struct {
	ID         string     `json:"id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Start      geo.LatLng `json:"start"`
	End        geo.LatLng `json:"end"`
	CapacityMW float64    `json:"capacity_mw"`
	FlowMW     float64    `json:"flow_mw"`
	IsNew      bool       `json:"is_new"`
	Width      float64    `json:"width"`
	Opacity    float64    `json:"opacity"`
	Color      string     `json:"color"`
}

// Region is a filled country polygon from the base topology.
type Region struct {
	Name    string     `json:"name"`
	Value   float64    `json:"value"`
	HasData bool       `json:"has_data"`
	Color   string     `json:"color"`
	Label   geo.LatLng `json:"label"`
	Tooltip string     `json:"tooltip"`
}

// BoundsBox is a south-west / north-east pair.
type BoundsBox struct {
	SouthWest geo.LatLng `json:"south_west"`
	NorthEast geo.LatLng `json:"north_east"`
}
