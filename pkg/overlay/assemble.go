// Package overlay converts a snapshot and a heatmap into render-ready map
// layers: country markers, transmission segments, and filled regions.
package overlay

import (
	"math"
	"strconv"
	"time"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/geo"
	"github.com/ChicagoDave/latamgrid/pkg/heatmap"
)

// Line styling.
const (
	BaseWidth    = 2.0
	WidthRange   = 6.0
	BaseOpacity  = 0.6
	OpacityRange = 0.4

	NewLineColor      = "#edd9a3"
	ForwardFlowColor  = "#4b2991"
	BackwardFlowColor = "#f7667c"
)

// boundsPadding widens the fitted view around the data.
const boundsPadding = 0.05

// Build assembles the overlay. topo may be nil, in which case no regions are
// produced and bounds come from the markers alone.
func Build(snap *dataset.Snapshot, hm heatmap.Result, topo *geo.Topology) *Overlay {
	capMax, flowMax := lineMaxima(snap.KPI.Regional.Lines)
	o := &Overlay{
		Metadata: Metadata{
			Key:           snap.Key,
			SnapshotID:    snap.ID,
			Metric:        hm.Metric.ID,
			Title:         hm.Metric.Title(),
			Unit:          hm.Metric.Unit(),
			MaxCapacityMW: capMax,
			MaxFlowMW:     flowMax,
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		},
		Markers: assembleMarkers(hm),
		Lines:   assembleLines(snap.KPI.Regional.Lines, capMax, flowMax),
		Regions: assembleRegions(hm, topo),
		Legend:  hm.Legend(),
	}
	o.Bounds = assembleBounds(o.Markers, topo)
	return o
}

// lineMaxima returns the largest capacity and absolute flow, each at
// least 1.
func lineMaxima(lines []dataset.Line) (capMax, flowMax float64) {
	capMax, flowMax = 1, 1
	for _, l := range lines {
		capMax = math.Max(capMax, l.Capacity)
		flowMax = math.Max(flowMax, math.Abs(l.Flow))
	}
	return capMax, flowMax
}

// LineStyle returns width, opacity, and color for one line.
func LineStyle(l dataset.Line, capMax, flowMax float64) (width, opacity float64, color string) {
	width = BaseWidth + l.Capacity/capMax*WidthRange
	opacity = BaseOpacity + math.Abs(l.Flow)/flowMax*OpacityRange
	switch {
	case l.IsNew:
		color = NewLineColor
	case l.Flow > 0:
		color = ForwardFlowColor
	default:
		color = BackwardFlowColor
	}
	return width, opacity, color
}

func assembleMarkers(hm heatmap.Result) []Marker {
	all := country.All()
	markers := make([]Marker, 0, len(all))
	for _, c := range all {
		markers = append(markers, Marker{
			Code:     c.Code,
			Name:     c.Name,
			Position: c.LatLng,
			Value:    hm.Values[c.Name],
			Color:    hm.Color(c.Name),
		})
	}
	return markers
}

func assembleLines(lines []dataset.Line, capMax, flowMax float64) []Segment {
	result := make([]Segment, 0, len(lines))
	for _, l := range lines {
		from, okFrom := country.ByName(l.From)
		to, okTo := country.ByName(l.To)
		if !okFrom || !okTo {
			continue
		}
		width, opacity, color := LineStyle(l, capMax, flowMax)
		result = append(result, Segment{
			ID:         l.ID,
			From:       l.From,
			To:         l.To,
			Start:      from.LatLng,
			End:        to.LatLng,
			CapacityMW: l.Capacity,
			FlowMW:     l.Flow,
			IsNew:      l.IsNew,
			Width:      width,
			Opacity:    opacity,
			Color:      color,
		})
	}
	return result
}

func assembleRegions(hm heatmap.Result, topo *geo.Topology) []Region {
	if topo == nil {
		return []Region{}
	}
	result := make([]Region, 0, topo.Len())
	for _, f := range topo.Features {
		if !country.IsKnown(f.Name) {
			continue
		}
		v, ok := hm.Values[f.Name]
		result = append(result, Region{
			Name:    f.Name,
			Value:   v,
			HasData: ok && v > 0,
			Color:   hm.Color(f.Name),
			Label:   f.LabelPoint(),
			Tooltip: Tooltip(hm.Metric, v, ok),
		})
	}
	return result
}

// Tooltip renders "<title>: <value> <unit>", or the metric's empty text
// when the value is missing or not positive.
func Tooltip(m heatmap.Metric, v float64, ok bool) string {
	if !ok || !(v > 0) {
		return m.Title() + ": " + m.EmptyText()
	}
	return m.Title() + ": " + groupThousands(int64(math.Round(v))) + " " + m.Unit()
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

func assembleBounds(markers []Marker, topo *geo.Topology) *BoundsBox {
	var b geo.Bounds
	for _, m := range markers {
		b.Extend(m.Position)
	}
	if topo != nil {
		for _, f := range topo.Features {
			if !country.IsKnown(f.Name) {
				continue
			}
			fb := f.Bounds()
			if fb.Valid() {
				b.Extend(fb.Min)
				b.Extend(fb.Max)
			}
		}
	}
	if !b.Valid() {
		return nil
	}
	b = b.Pad(boundsPadding)
	return &BoundsBox{SouthWest: b.Min, NorthEast: b.Max}
}
