// Package country holds the built-in registry of countries covered by the
// scenario datasets and the rules for reconciling the country keys found in
// raw documents.
package country

import (
	"sort"

	"github.com/ChicagoDave/latamgrid/pkg/geo"
)

// Country identifies one country on the map.
type Country struct {
	Name   string     `json:"name"`
	Code   string     `json:"code"`
	LatLng geo.LatLng `json:"latlng"`
}

var registry = []Country{
	{Name: "Mexico", Code: "MX", LatLng: geo.Pt(23.63, -102.55)},
	{Name: "Guatemala", Code: "GT", LatLng: geo.Pt(15.78, -90.23)},
	{Name: "Honduras", Code: "HN", LatLng: geo.Pt(15.2, -86.24)},
	{Name: "El Salvador", Code: "SV", LatLng: geo.Pt(13.79, -88.89)},
	{Name: "Nicaragua", Code: "NI", LatLng: geo.Pt(12.86, -85.20)},
	{Name: "Costa Rica", Code: "CR", LatLng: geo.Pt(9.92, -84.08)},
	{Name: "Panama", Code: "PA", LatLng: geo.Pt(8.98, -79.52)},
	{Name: "Colombia", Code: "CO", LatLng: geo.Pt(4.57, -74.29)},
	{Name: "Venezuela", Code: "VE", LatLng: geo.Pt(6.42, -66.58)},
	{Name: "Ecuador", Code: "EC", LatLng: geo.Pt(-1.83, -78.18)},
	{Name: "Peru", Code: "PE", LatLng: geo.Pt(-9.19, -75.01)},
	{Name: "Bolivia", Code: "BO", LatLng: geo.Pt(-16.29, -63.58)},
	{Name: "Brazil", Code: "BR", LatLng: geo.Pt(-14.23, -51.92)},
	{Name: "Paraguay", Code: "PY", LatLng: geo.Pt(-23.44, -58.44)},
	{Name: "Chile", Code: "CL", LatLng: geo.Pt(-35.67, -71.54)},
	{Name: "Argentina", Code: "AR", LatLng: geo.Pt(-38.41, -63.61)},
	{Name: "Uruguay", Code: "UY", LatLng: geo.Pt(-32.52, -55.76)},
	{Name: "Guyana", Code: "GY", LatLng: geo.Pt(4.86, -58.93)},
	{Name: "Suriname", Code: "SR", LatLng: geo.Pt(3.91, -56.02)},
	{Name: "French Guiana", Code: "GF", LatLng: geo.Pt(3.93, -53.12)},
	{Name: "Belize", Code: "BZ", LatLng: geo.Pt(17.18, -88.49)},
}

var (
	byCode = make(map[string]int, len(registry))
	byName = make(map[string]int, len(registry))
)

func init() {
	for i, c := range registry {
		byCode[c.Code] = i
		byName[c.Name] = i
	}
}

// All returns a copy of the registry in its canonical order.
func All() []Country {
	out := make([]Country, len(registry))
	copy(out, registry)
	return out
}

// Names returns every canonical country name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// ByName looks a country up by canonical name.
func ByName(name string) (Country, bool) {
	i, ok := byName[name]
	if !ok {
		return Country{}, false
	}
	return registry[i], true
}

// ByCode looks a country up by its standard two-letter code. Legacy codes
// are not accepted here; use Resolve for raw data keys.
func ByCode(code string) (Country, bool) {
	i, ok := byCode[code]
	if !ok {
		return Country{}, false
	}
	return registry[i], true
}

// IsKnown reports whether name is a canonical country name.
func IsKnown(name string) bool {
	_, ok := byName[name]
	return ok
}
