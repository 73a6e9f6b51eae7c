// Package scenario defines the six-dimension scenario configuration, the
// manifest of pre-computed scenarios, and the resolver that maps a single
// field edit to the nearest valid scenario.
package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrManifestUnavailable is returned when the manifest is missing,
	// unreadable, or empty.
	ErrManifestUnavailable = errors.New("scenario manifest unavailable")

	// ErrNoResolution is returned when an edit has no satisfying manifest
	// entry. Callers keep their previous configuration.
	ErrNoResolution = errors.New("no scenario matches the requested change")

	ErrInvalidField = errors.New("unknown scenario field")
	ErrInvalidValue = errors.New("invalid scenario value")
)

// Field names one configuration dimension.
type Field string

const (
	FieldYear         Field = "year"
	FieldTransmission Field = "transmission"
	FieldSovereignty  Field = "sovereignty"
	FieldDemand       Field = "demand"
	FieldHydroAndean  Field = "hydroAndean"
	FieldHydroConoSur Field = "hydroConoSur"
)

// Order is the fixed dependency order. Editing a field constrains every
// field before it and frees every field after it.
var Order = []Field{
	FieldYear,
	FieldTransmission,
	FieldSovereignty,
	FieldDemand,
	FieldHydroAndean,
	FieldHydroConoSur,
}

// Position returns the index of f in Order, or -1.
func (f Field) Position() int {
	for i, o := range Order {
		if o == f {
			return i
		}
	}
	return -1
}

// ParseField accepts a field name.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if f.Position() < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
	return f, nil
}

// Transmission is the interconnection policy.
type Transmission string

const (
	Isolated   Transmission = "Isolated"
	Integrated Transmission = "Integrated"
)

// Sovereignty is the energy-sovereignty policy.
type Sovereignty string

const (
	WithSovereignty    Sovereignty = "WithSovereignty"
	WithoutSovereignty Sovereignty = "WithoutSovereignty"
)

// Demand is the demand-growth case.
type Demand string

const (
	BaseCase     Demand = "BaseCase"
	NoCoal       Demand = "NoCoal"
	ElecPlus     Demand = "ElecPlus"
	ElecRenLimit Demand = "ElecRenLimit"
)

// HydroLevel is a hydrological condition.
type HydroLevel string

const (
	High   HydroLevel = "High"
	Medium HydroLevel = "Medium"
	Low    HydroLevel = "Low"
)

var domains = map[Field][]string{
	FieldYear:         {"2025", "2035", "2045"},
	FieldTransmission: {string(Isolated), string(Integrated)},
	FieldSovereignty:  {string(WithSovereignty), string(WithoutSovereignty)},
	FieldDemand:       {string(BaseCase), string(NoCoal), string(ElecPlus), string(ElecRenLimit)},
	FieldHydroAndean:  {string(High), string(Medium), string(Low)},
	FieldHydroConoSur: {string(High), string(Medium), string(Low)},
}

// Domain returns every value a field may take, in display order.
func Domain(f Field) []string {
	return append([]string(nil), domains[f]...)
}

func inDomain(f Field, v string) bool {
	for _, d := range domains[f] {
		if d == v {
			return true
		}
	}
	return false
}

// Config is one combination of the six scenario dimensions. It is a
// comparable value; two configs are the same scenario iff they are ==.
type Config struct {
	Year         int          `json:"year" yaml:"year"`
	Transmission Transmission `json:"transmission" yaml:"transmission"`
	Sovereignty  Sovereignty  `json:"sovereignty" yaml:"sovereignty"`
	Demand       Demand       `json:"demand" yaml:"demand"`
	HydroAndean  HydroLevel   `json:"hydroAndean" yaml:"hydroAndean"`
	HydroConoSur HydroLevel   `json:"hydroConoSur" yaml:"hydroConoSur"`
}

// Value returns the string form of one field.
func (c Config) Value(f Field) string {
	switch f {
	case FieldYear:
		return strconv.Itoa(c.Year)
	case FieldTransmission:
		return string(c.Transmission)
	case FieldSovereignty:
		return string(c.Sovereignty)
	case FieldDemand:
		return string(c.Demand)
	case FieldHydroAndean:
		return string(c.HydroAndean)
	case FieldHydroConoSur:
		return string(c.HydroConoSur)
	}
	return ""
}

// With returns a copy of c with field f set to v. The value must belong to
// the field's domain.
func (c Config) With(f Field, v string) (Config, error) {
	if f.Position() < 0 {
		return c, fmt.Errorf("%w: %q", ErrInvalidField, f)
	}
	if !inDomain(f, v) {
		return c, fmt.Errorf("%w: %s=%q", ErrInvalidValue, f, v)
	}
	switch f {
	case FieldYear:
		c.Year, _ = strconv.Atoi(v)
	case FieldTransmission:
		c.Transmission = Transmission(v)
	case FieldSovereignty:
		c.Sovereignty = Sovereignty(v)
	case FieldDemand:
		c.Demand = Demand(v)
	case FieldHydroAndean:
		c.HydroAndean = HydroLevel(v)
	case FieldHydroConoSur:
		c.HydroConoSur = HydroLevel(v)
	}
	return c, nil
}

// Validate checks every field against its domain.
func (c Config) Validate() error {
	var bad []string
	for _, f := range Order {
		if v := c.Value(f); !inDomain(f, v) {
			bad = append(bad, fmt.Sprintf("%s=%q", f, v))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(bad, ", "))
	}
	return nil
}

// KeySeparator joins the fields of a scenario key.
const KeySeparator = "-"

// Key returns the deterministic document key for the scenario, the six
// fields joined in dependency order.
func (c Config) Key() string {
	parts := make([]string, len(Order))
	for i, f := range Order {
		parts[i] = c.Value(f)
	}
	return strings.Join(parts, KeySeparator)
}

func (c Config) String() string {
	return c.Key()
}

// agreesThrough reports whether a and b hold equal values for every field up
// to and including position pos.
func agreesThrough(a, b Config, pos int) bool {
	for i := 0; i <= pos && i < len(Order); i++ {
		if a.Value(Order[i]) != b.Value(Order[i]) {
			return false
		}
	}
	return true
}
