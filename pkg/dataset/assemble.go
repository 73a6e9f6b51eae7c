// Package dataset decodes the per-scenario documents and assembles them into
// a single normalized Snapshot.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// ErrDataUnavailable is returned when any document for a scenario is
// missing, unreadable, or lacks a required section.
var ErrDataUnavailable = errors.New("scenario data unavailable")

// CollapseHydro merges reservoir and run-of-river hydro into a single
// Hydroelectric figure. Every other technology passes through.
func CollapseHydro(raw RawGenerationMix) GenerationMix {
	return GenerationMix{
		Solar:         raw.Solar,
		Wind:          raw.Wind,
		Nuclear:       raw.Nuclear,
		Hydroelectric: raw.HydroEmbalse + raw.HydroPasada,
		Coal:          raw.Coal,
		Gas:           raw.Gas,
		Diesel:        raw.Diesel,
	}
}

// Assemble validates docs and builds the snapshot for cfg. The returned
// report holds every finding, including normalization warnings; when it
// has errors the result is nil and the error wraps ErrDataUnavailable.
//
// Assemble is deterministic. ID and LoadedAt are left for the caller.
func Assemble(cfg scenario.Config, docs Documents) (*Snapshot, *validation.Report, error) {
	key := cfg.Key()
	report := docs.Validate(key)
	if !report.Valid {
		return nil, report, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, key, report.Err())
	}

	scenarioName := DocumentName(key, KindScenario)
	kpiName := DocumentName(key, KindKPI)
	investName := DocumentName(key, KindInvestment)

	if p := docs.Scenario.ScenarioParameters; p != nil && *p != cfg {
		report.AddWarning(validation.Result{
			Level:       validation.LevelAssembly,
			Message:     "document parameters do not match the requested scenario",
			Source:      scenarioName,
			Path:        "scenarioParameters",
			ActualValue: p.Key(),
			Expected:    key,
		})
	}

	snap := &Snapshot{Config: cfg, Key: key}

	// Generation
	genRaw := make(map[string]GenerationMix, len(docs.Scenario.Countries))
	for name, c := range docs.Scenario.Countries {
		genRaw[name] = CollapseHydro(*c.GenerationMix)
	}
	gen, nr := country.NormalizeWithReport(genRaw)
	reportNormalization(report, scenarioName, "countries", nr)
	snap.Generation = GenerationData{
		Regional:  CollapseHydro(*docs.Scenario.Regional.GenerationMix),
		Countries: gen,
	}

	// KPI
	kpiRaw := make(map[string]CountryKPI, len(docs.KPI.Countries))
	for name, c := range docs.KPI.Countries {
		kpiRaw[name] = CountryKPI{
			LossToTrust:    c.LossToTrust,
			LossToNotTrust: c.LossToNotTrust,
			OperationCost:  c.OperationCost,
			TotalEmissions: c.TotalEmissions,
			EnergyBalance: EnergyBalance{
				Imports: c.EnergyBalance.Imports,
				Exports: math.Abs(c.EnergyBalance.Exports),
			},
		}
	}
	kpis, nr := country.NormalizeWithReport(kpiRaw)
	reportNormalization(report, kpiName, "countries", nr)

	var investLines []RawInvestmentLine
	if docs.Investment.Transmission != nil {
		investLines = docs.Investment.Transmission.Lines
	}
	rk := docs.KPI.Regional
	snap.KPI = KPIData{
		Regional: RegionalKPI{
			TotalCost:        rk.TotalCost,
			TotalInvestment:  rk.TotalInvestment,
			TotalEmissions:   rk.TotalEmissions,
			GeopoliticalCost: rk.GeopoliticalCost,
			Lines:            MergeLines(docs.Scenario.StaticLines, investLines, investName, report),
		},
		Countries: kpis,
	}

	// Investment
	inv, nr := country.NormalizeWithReport(docs.Investment.Generation.Countries)
	reportNormalization(report, investName, "generation.countries", nr)
	snap.Investment = InvestmentData{Countries: inv}
	if r := docs.Investment.Generation.Regional; r != nil {
		snap.Investment.Regional = *r
	}

	return snap, report, nil
}
