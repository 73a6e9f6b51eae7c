package scenario

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// Manifest is the ordered set of scenarios for which data exists. It is
// read-only once built.
type Manifest struct {
	// entries is the document as read; scenarios holds only the in-domain
	// ones, which are the only ones resolution and options ever see.
	entries   []Config
	scenarios []Config
	index     map[Config]int

	// Single-slot memo for Options; the manifest never changes, so the
	// last config asked about is the only key.
	optsMu  sync.Mutex
	optsFor *Config
	opts    map[Field][]string
}

type manifestFile struct {
	Scenarios []Config `yaml:"scenarios"`
}

// NewManifest builds a manifest from scenarios in the given order. Entries
// outside the configuration domain are kept for Validate to report but are
// never selectable.
func NewManifest(scenarios []Config) (*Manifest, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios", ErrManifestUnavailable)
	}
	m := &Manifest{
		entries: append([]Config(nil), scenarios...),
		index:   make(map[Config]int, len(scenarios)),
	}
	for _, s := range m.entries {
		if s.Validate() != nil {
			continue
		}
		if _, dup := m.index[s]; !dup {
			m.index[s] = len(m.scenarios)
		}
		m.scenarios = append(m.scenarios, s)
	}
	if len(m.scenarios) == 0 {
		return nil, fmt.Errorf("%w: none of %d scenarios is in domain", ErrManifestUnavailable, len(scenarios))
	}
	return m, nil
}

// LoadManifest reads a manifest document of the form
// {"scenarios": [{"year": 2025, "transmission": "Isolated", ...}, ...]}.
// JSON and YAML encodings are both accepted.
func LoadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrManifestUnavailable, err)
	}
	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %v", ErrManifestUnavailable, err)
	}
	return NewManifest(f.Scenarios)
}

// Len returns the number of selectable scenarios.
func (m *Manifest) Len() int {
	return len(m.scenarios)
}

// Scenarios returns a copy of the selectable scenarios in manifest order.
func (m *Manifest) Scenarios() []Config {
	return append([]Config(nil), m.scenarios...)
}

// Default returns the first scenario, used as the initial selection.
func (m *Manifest) Default() Config {
	return m.scenarios[0]
}

// Contains reports whether c is one of the manifest's scenarios.
func (m *Manifest) Contains(c Config) bool {
	_, ok := m.index[c]
	return ok
}

// Validate reports out-of-domain entries as errors and repeated entries as
// warnings.
func (m *Manifest) Validate() *validation.Report {
	r := validation.NewReport()
	seen := make(map[Config]int, len(m.entries))
	for i, s := range m.entries {
		path := fmt.Sprintf("scenarios[%d]", i)
		if err := s.Validate(); err != nil {
			r.AddError(validation.Result{
				Level:       validation.LevelManifest,
				Message:     err.Error(),
				Path:        path,
				ActualValue: s.Key(),
				Suggestions: []string{"The entry is skipped and cannot be selected"},
			})
			continue
		}
		if prev, dup := seen[s]; dup {
			r.AddWarning(validation.Result{
				Level:       validation.LevelManifest,
				Message:     fmt.Sprintf("scenario %s repeats scenarios[%d]", s.Key(), prev),
				Path:        path,
				Suggestions: []string{"Remove the duplicate entry; only the first is ever selected"},
			})
			continue
		}
		seen[s] = i
	}
	r.AddInfo(validation.Result{
		Level:   validation.LevelManifest,
		Message: fmt.Sprintf("%d entries, %d selectable, %d distinct", len(m.entries), len(m.scenarios), len(seen)),
	})
	return r
}

// Options returns ValidOptions for every field of c. Results are memoized
// for the most recent c.
func (m *Manifest) Options(c Config) map[Field][]string {
	m.optsMu.Lock()
	defer m.optsMu.Unlock()

	if m.optsFor != nil && *m.optsFor == c {
		return copyOptions(m.opts)
	}
	opts := make(map[Field][]string, len(Order))
	for _, f := range Order {
		opts[f] = ValidOptions(f, c, m)
	}
	key := c
	m.optsFor = &key
	m.opts = opts
	return copyOptions(opts)
}

func copyOptions(in map[Field][]string) map[Field][]string {
	out := make(map[Field][]string, len(in))
	for f, vs := range in {
		out[f] = append([]string(nil), vs...)
	}
	return out
}
