package analytics

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// aggregateTolerance is the relative gap allowed between a regional total
// and the sum of its countries.
const aggregateTolerance = 0.01

func validateConsistency(snap *dataset.Snapshot, report *validation.Report) {
	validateInvestmentAggregate(snap, report)
	validateCoverage(snap, report)
	validateLines(snap, report)
}

func validateInvestmentAggregate(snap *dataset.Snapshot, report *validation.Report) {
	regional := snap.Investment.Regional.Total()
	sum := 0.0
	for _, m := range snap.Investment.Countries {
		sum += m.Total()
	}
	if regional == 0 && sum == 0 {
		return
	}
	gap := math.Abs(regional-sum) / math.Max(regional, sum)
	if gap > aggregateTolerance {
		report.AddWarning(validation.Result{
			Level:       validation.LevelAssembly,
			Message:     fmt.Sprintf("regional investment %.0f MW differs from the country sum %.0f MW by %.1f%%", regional, sum, gap*100),
			Path:        "investment.regional",
			ActualValue: regional,
			Expected:    fmt.Sprintf("%.0f", sum),
		})
	}
}

func validateCoverage(snap *dataset.Snapshot, report *validation.Report) {
	for _, name := range Countries(snap) {
		if !country.IsKnown(name) {
			report.AddInfo(validation.Result{
				Level:   validation.LevelAssembly,
				Message: fmt.Sprintf("%q is not a registry country; it has data but no map position", name),
				Path:    "countries",
			})
			continue
		}
		if _, ok := snap.KPI.Countries[name]; !ok {
			report.AddInfo(validation.Result{
				Level:   validation.LevelAssembly,
				Message: fmt.Sprintf("%s has no KPI record", name),
				Path:    "kpi.countries",
			})
		}
	}
}

func validateLines(snap *dataset.Snapshot, report *validation.Report) {
	for _, l := range snap.KPI.Regional.Lines {
		if l.Capacity == 0 {
			report.AddInfo(validation.Result{
				Level:   validation.LevelAssembly,
				Message: fmt.Sprintf("line %s (%s-%s) has no capacity", l.ID, l.From, l.To),
				Path:    "kpi.regional.lines",
			})
		}
	}
}
