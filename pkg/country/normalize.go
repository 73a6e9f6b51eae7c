package country

import "sort"

// legacyCodes maps the non-standard codes used by some data files to the
// standard codes in the registry.
var legacyCodes = map[string]string{
	"GU": "GT", // Guatemala
	"HO": "HN", // Honduras
	"ES": "SV", // El Salvador
	"FG": "GF", // French Guiana
	"SU": "SR", // Suriname
}

// StandardCode returns the standard code for a legacy code, or code itself.
func StandardCode(code string) string {
	if std, ok := legacyCodes[code]; ok {
		return std
	}
	return code
}

// NormalizeKey maps a raw data key to its canonical country name. Legacy
// codes are translated first, then standard codes resolve to names. Keys
// that resolve to nothing pass through unchanged, so full names and
// unrecognized keys are both kept as-is.
func NormalizeKey(key string) string {
	if c, ok := ByCode(StandardCode(key)); ok {
		return c.Name
	}
	return key
}

// Resolve maps a raw code (legacy or standard) to a registry entry.
func Resolve(code string) (Country, bool) {
	return ByCode(StandardCode(code))
}

// Collision records two or more raw keys that normalized to the same name.
type Collision struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
	Kept string   `json:"kept"`
}

// NormalizeReport lists what normalization could not reconcile cleanly.
type NormalizeReport struct {
	// Unknown holds keys that are neither a registry code nor a registry
	// name. They are preserved in the output under their original key.
	Unknown    []string
	Collisions []Collision
}

// Normalize re-keys m by canonical country name. See NormalizeWithReport.
func Normalize[T any](m map[string]T) map[string]T {
	out, _ := NormalizeWithReport(m)
	return out
}

// NormalizeWithReport re-keys m by canonical country name and reports
// unknown keys and collisions.
//
// When several raw keys land on one name, the key that was already the
// canonical name wins; otherwise the lexicographically smallest raw key
// wins. Normalizing an already-normalized map returns an equal map.
//
// The output has as many keys as m unless keys collide; each collision
// removes all but its kept key.
func NormalizeWithReport[T any](m map[string]T) (map[string]T, NormalizeReport) {
	var report NormalizeReport
	out := make(map[string]T, len(m))
	if m == nil {
		return out, report
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sources := make(map[string][]string, len(m))
	for _, k := range keys {
		name := NormalizeKey(k)
		if name == k && !IsKnown(k) {
			report.Unknown = append(report.Unknown, k)
		}
		sources[name] = append(sources[name], k)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		keys := sources[name]
		kept := keys[0]
		for _, k := range keys {
			if k == name {
				kept = k
				break
			}
		}
		out[name] = m[kept]
		if len(keys) > 1 {
			report.Collisions = append(report.Collisions, Collision{Name: name, Keys: keys, Kept: kept})
		}
	}
	return out, report
}
