// Package analytics derives regional and per-country summaries from an
// assembled snapshot.
package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// ErrUnknownCountry is returned when a snapshot has no data for a country.
var ErrUnknownCountry = errors.New("no data for country")

// Regional summarizes the whole region and reports consistency findings
// between the regional aggregates and the per-country figures.
func Regional(snap *dataset.Snapshot) (*RegionalSummary, *validation.Report) {
	report := validation.NewReport()

	gen, genTotal := GenerationShares(snap.Generation.Regional)
	rk := snap.KPI.Regional
	summary := &RegionalSummary{
		Key:              snap.Key,
		GenerationGWh:    genTotal,
		Generation:       gen,
		Investment:       Profile(snap.Investment.Regional),
		TotalCost:        rk.TotalCost,
		TotalInvestment:  rk.TotalInvestment,
		TotalEmissions:   rk.TotalEmissions,
		GeopoliticalCost: rk.GeopoliticalCost,
		Transmission:     interconnection(rk.Lines, ""),
		Countries:        len(Countries(snap)),
	}

	validateConsistency(snap, report)
	return summary, report
}

// Country summarizes one country. name may be a canonical name or a code.
func Country(snap *dataset.Snapshot, name string) (*CountrySummary, error) {
	name = country.NormalizeKey(name)
	genMix, hasGen := snap.Generation.Countries[name]
	kpi, hasKPI := snap.KPI.Countries[name]
	inv, hasInv := snap.Investment.Countries[name]
	if !hasGen && !hasKPI && !hasInv {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownCountry, name, snap.Key)
	}

	gen, genTotal := GenerationShares(genMix)
	s := &CountrySummary{
		Name:          name,
		GenerationGWh: genTotal,
		Generation:    gen,
		Investment:    Profile(inv),
		KPI:           kpi,
		NetBalance:    kpi.EnergyBalance.Imports - kpi.EnergyBalance.Exports,
		Transmission:  interconnection(snap.KPI.Regional.Lines, name),
	}
	if c, ok := country.ByName(name); ok {
		s.Code = c.Code
	}
	return s, nil
}

// Countries lists every country with data in any part of the snapshot,
// sorted by name.
func Countries(snap *dataset.Snapshot) []string {
	seen := make(map[string]bool)
	for n := range snap.Generation.Countries {
		seen[n] = true
	}
	for n := range snap.KPI.Countries {
		seen[n] = true
	}
	for n := range snap.Investment.Countries {
		seen[n] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// interconnection totals the lines touching name, or every line when name
// is empty.
func interconnection(lines []dataset.Line, name string) Interconnection {
	var ic Interconnection
	partners := make(map[string]bool)
	for _, l := range lines {
		if name != "" && !l.Touches(name) {
			continue
		}
		ic.Lines++
		ic.CapacityMW += l.Capacity
		if l.IsNew {
			ic.NewLines++
			ic.NewCapacityMW += l.Capacity
		}
		if name != "" {
			other := l.From
			if other == name {
				other = l.To
			}
			partners[other] = true
		}
	}
	for p := range partners {
		ic.Partners = append(ic.Partners, p)
	}
	sort.Strings(ic.Partners)
	return ic
}
