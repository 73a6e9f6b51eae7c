package dataset

import (
	"fmt"
	"sort"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// Validate checks the three documents for the sections assembly depends on.
// Missing required sections are errors; suspicious values are warnings.
func (d Documents) Validate(key string) *validation.Report {
	r := validation.NewReport()
	validateScenarioDoc(d.Scenario, DocumentName(key, KindScenario), r)
	validateKPIDoc(d.KPI, DocumentName(key, KindKPI), r)
	validateInvestmentDoc(d.Investment, DocumentName(key, KindInvestment), r)
	return r
}

func missing(r *validation.Report, source, path string) {
	r.AddError(validation.Result{
		Level:   validation.LevelDocument,
		Message: fmt.Sprintf("required section %q is missing", path),
		Source:  source,
		Path:    path,
	})
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateScenarioDoc(doc *RawScenarioDocument, source string, r *validation.Report) {
	if doc == nil {
		missing(r, source, "$")
		return
	}
	if doc.Regional == nil || doc.Regional.GenerationMix == nil {
		missing(r, source, "regional.generationMix")
	}
	if doc.Countries == nil {
		missing(r, source, "countries")
	}
	for _, name := range sortedKeys(doc.Countries) {
		if doc.Countries[name].GenerationMix == nil {
			missing(r, source, "countries."+name+".generationMix")
		}
	}
	if doc.StaticLines == nil {
		missing(r, source, "staticLines")
	}
	for i, l := range doc.StaticLines {
		path := fmt.Sprintf("staticLines[%d]", i)
		if l.ID == "" {
			r.AddWarning(validation.Result{
				Level:   validation.LevelDocument,
				Message: "static line has no id and is skipped",
				Source:  source,
				Path:    path,
			})
		}
		if l.ExistingCapacity < 0 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelDocument,
				Message:     "negative existing capacity is treated as zero",
				Source:      source,
				Path:        path + ".existingCapacity",
				ActualValue: l.ExistingCapacity,
				Expected:    ">= 0",
			})
		}
		for _, end := range []string{l.From, l.To} {
			if !country.IsKnown(country.NormalizeKey(end)) {
				r.AddWarning(validation.Result{
					Level:       validation.LevelDocument,
					Message:     fmt.Sprintf("line endpoint %q is not a known country and will not be drawn", end),
					Source:      source,
					Path:        path,
					ActualValue: end,
				})
			}
		}
	}
}

func validateKPIDoc(doc *RawKPIDocument, source string, r *validation.Report) {
	if doc == nil {
		missing(r, source, "$")
		return
	}
	if doc.Regional == nil {
		missing(r, source, "regional")
	}
	if doc.Countries == nil {
		missing(r, source, "countries")
	}
	for _, name := range sortedKeys(doc.Countries) {
		if doc.Countries[name].EnergyBalance == nil {
			missing(r, source, "countries."+name+".energyBalance")
		}
	}
}

func validateInvestmentDoc(doc *RawInvestmentDocument, source string, r *validation.Report) {
	if doc == nil {
		missing(r, source, "$")
		return
	}
	if doc.Generation == nil {
		missing(r, source, "generation")
	} else if doc.Generation.Regional == nil {
		r.AddWarning(validation.Result{
			Level:   validation.LevelDocument,
			Message: "no regional investment mix; treated as zero",
			Source:  source,
			Path:    "generation.regional",
		})
	}
	if doc.Transmission == nil {
		missing(r, source, "transmission")
	}
}

func reportNormalization(r *validation.Report, source, path string, nr country.NormalizeReport) {
	for _, k := range nr.Unknown {
		r.AddWarning(validation.Result{
			Level:       validation.LevelAssembly,
			Message:     fmt.Sprintf("key %q is not a known country code or name; kept as-is", k),
			Source:      source,
			Path:        path,
			ActualValue: k,
		})
	}
	for _, c := range nr.Collisions {
		r.AddWarning(validation.Result{
			Level:       validation.LevelAssembly,
			Message:     fmt.Sprintf("keys %v all normalize to %q; kept %q", c.Keys, c.Name, c.Kept),
			Source:      source,
			Path:        path,
			ActualValue: c.Keys,
		})
	}
}
