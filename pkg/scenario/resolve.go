package scenario

import "fmt"

// Resolve applies a single-field edit to current and returns the first
// manifest scenario that agrees with the edited config on every field up to
// and including the edited one. Fields after it take whatever value that
// scenario has.
//
// ErrNoResolution means no scenario satisfies the edit; the caller keeps
// current unchanged.
func Resolve(current Config, m *Manifest, field Field, value string) (Config, error) {
	candidate, err := current.With(field, value)
	if err != nil {
		return current, err
	}
	pos := field.Position()
	for _, s := range m.scenarios {
		if agreesThrough(s, candidate, pos) {
			return s, nil
		}
	}
	return current, fmt.Errorf("%w: %s=%s from %s", ErrNoResolution, field, value, current.Key())
}

// ValidOptions returns the distinct values of field, in manifest order,
// among scenarios that agree with c on every field before it. The first
// field in Order is unconstrained and lists every value in the manifest.
func ValidOptions(field Field, c Config, m *Manifest) []string {
	pos := field.Position()
	if pos < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range m.scenarios {
		if pos > 0 && !agreesThrough(s, c, pos-1) {
			continue
		}
		v := s.Value(field)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// IsSelectable reports whether choosing value for field from c would resolve.
func IsSelectable(field Field, value string, c Config, m *Manifest) bool {
	for _, v := range ValidOptions(field, c, m) {
		if v == value {
			return true
		}
	}
	return false
}
