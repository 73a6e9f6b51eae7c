// Package heatmap derives choropleth color scales from per-country metric
// values.
package heatmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoDataColor fills countries without a positive value.
const NoDataColor = "#18181b"

// Palette holds the band colors, lowest band first.
var Palette = [6]string{"#5f6c9a", "#7886C7", "#919cc9", "#A9B5DF", "#d4d9ed", "#FFF2F2"}

// Fractions of the maximum at which bands start.
var Fractions = [6]float64{0, 0.01, 0.1, 0.25, 0.5, 0.75}

// Scale maps a value to a color. The zero Scale is the no-data scale.
type Scale struct {
	// Boundaries are non-decreasing band starts. A scale without positive
	// input has the single boundary 0.
	Boundaries []float64 `json:"boundaries"`
	Max        float64   `json:"max"`
	NoData     bool      `json:"noData"`
}

// Build derives a scale from the positive values in values. Non-positive
// values and NaN are ignored.
func Build(values map[string]float64) Scale {
	maxValue := 0.0
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue <= 0 || math.IsInf(maxValue, 0) {
		return Scale{Boundaries: []float64{0}, NoData: true}
	}
	b := make([]float64, len(Fractions))
	for i, f := range Fractions {
		b[i] = maxValue * f
	}
	return Scale{Boundaries: b, Max: maxValue}
}

// Band returns the index of the highest boundary v strictly exceeds, or -1
// when v is not positive or the scale has no data.
func (s Scale) Band(v float64) int {
	if s.NoData || len(s.Boundaries) == 0 || !(v > 0) {
		return -1
	}
	for i := len(s.Boundaries) - 1; i >= 0; i-- {
		if v > s.Boundaries[i] {
			return i
		}
	}
	return -1
}

// ColorOf returns the fill for v.
func (s Scale) ColorOf(v float64) string {
	band := s.Band(v)
	if band < 0 || band >= len(Palette) {
		return NoDataColor
	}
	return Palette[band]
}

// ColorFor returns the fill for a named country; absent countries get the
// no-data color.
func (s Scale) ColorFor(values map[string]float64, name string) string {
	v, ok := values[name]
	if !ok {
		return NoDataColor
	}
	return s.ColorOf(v)
}

// LegendRow is one line of the legend.
type LegendRow struct {
	Color string `json:"color"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Label string `json:"label"`
}

// Legend describes a scale for display.
type Legend struct {
	Title string      `json:"title"`
	Rows  []LegendRow `json:"rows"`
	// Message is set instead of rows when there is nothing to show.
	Message string `json:"message,omitempty"`
}

// Legend builds the legend rows. Bounds are rounded to whole units and the
// last row is open-ended.
func (s Scale) Legend(title string) Legend {
	l := Legend{Title: title}
	if s.NoData || len(s.Boundaries) <= 1 {
		l.Message = "No data available"
		return l
	}
	grades := make([]float64, len(s.Boundaries))
	for i, b := range s.Boundaries {
		grades[i] = math.Round(b)
	}
	for i, from := range grades {
		row := LegendRow{Color: s.ColorOf(from + 1), From: FormatNumber(from)}
		if i+1 < len(grades) {
			row.To = FormatNumber(grades[i+1])
			row.Label = row.From + "–" + row.To
		} else {
			row.Label = row.From + "+"
		}
		l.Rows = append(l.Rows, row)
	}
	return l
}

// FormatNumber renders whole units below 1000 and thousands with at most
// one decimal and a "k" suffix, e.g. 950, 1.2k, 12k.
func FormatNumber(v float64) string {
	if math.Abs(v) >= 1000 {
		s := strconv.FormatFloat(math.Round(v/100)/10, 'f', 1, 64)
		return strings.TrimSuffix(s, ".0") + "k"
	}
	return fmt.Sprintf("%.0f", math.Round(v))
}
