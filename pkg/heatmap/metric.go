package heatmap

import (
	"errors"
	"fmt"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
)

// ErrUnknownMetric is returned by Lookup for an id outside the metric set.
var ErrUnknownMetric = errors.New("unknown heatmap metric")

// Kind separates investment metrics (MW) from KPI metrics (MMUSD).
type Kind int

const (
	KindInvestment Kind = iota
	KindKPI
)

func (k Kind) String() string {
	if k == KindKPI {
		return "kpi"
	}
	return "investment"
}

// Metric is one selectable heatmap quantity. Each metric carries its own
// accessor, so a selection is resolved once rather than dispatched by name
// on every read.
type Metric struct {
	ID    string
	Label string
	Kind  Kind

	investment func(dataset.InvestmentMix) float64
	kpi        func(dataset.CountryKPI) float64
}

func investmentMetric(id, label string, f func(dataset.InvestmentMix) float64) Metric {
	return Metric{ID: id, Label: label, Kind: KindInvestment, investment: f}
}

func kpiMetric(id, label string, f func(dataset.CountryKPI) float64) Metric {
	return Metric{ID: id, Label: label, Kind: KindKPI, kpi: f}
}

func tech(t dataset.Technology) func(dataset.InvestmentMix) float64 {
	return func(m dataset.InvestmentMix) float64 { return m.Get(t) }
}

var metrics = []Metric{
	investmentMetric("Total", "Total Investment", dataset.InvestmentMix.Total),
	investmentMetric("BESS", "Investment: BESS", tech(dataset.BESS)),
	investmentMetric("Solar", "Investment: Solar", tech(dataset.Solar)),
	investmentMetric("Wind", "Investment: Wind", tech(dataset.Wind)),
	investmentMetric("Gas", "Investment: Gas", tech(dataset.Gas)),
	investmentMetric("Diesel", "Investment: Diesel", tech(dataset.Diesel)),
	investmentMetric("Coal", "Investment: Coal", tech(dataset.Coal)),
	kpiMetric("lossToTrust", "KPI: Loss to Trust", func(k dataset.CountryKPI) float64 { return k.LossToTrust }),
	kpiMetric("lossToNotTrust", "KPI: Loss to Not Trust", func(k dataset.CountryKPI) float64 { return k.LossToNotTrust }),
	kpiMetric("operationCost", "KPI: Operation Cost", func(k dataset.CountryKPI) float64 { return k.OperationCost }),
	kpiMetric("imports", "KPI: Imports", func(k dataset.CountryKPI) float64 { return k.EnergyBalance.Imports }),
	kpiMetric("exports", "KPI: Exports", func(k dataset.CountryKPI) float64 { return k.EnergyBalance.Exports }),
	kpiMetric("totalEmissions", "KPI: Total Emissions", func(k dataset.CountryKPI) float64 { return k.TotalEmissions }),
}

// Default is the metric selected initially.
const Default = "Total"

// Metrics returns every metric in display order.
func Metrics() []Metric {
	return append([]Metric(nil), metrics...)
}

// Lookup resolves a metric id.
func Lookup(id string) (Metric, error) {
	for _, m := range metrics {
		if m.ID == id {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}

// Title is the legend heading, e.g. "Investment: Solar" or "KPI: imports".
func (m Metric) Title() string {
	if m.Kind == KindKPI {
		return "KPI: " + m.ID
	}
	return "Investment: " + m.ID
}

// Unit is "MMUSD" for KPI metrics and "MW" for investment metrics.
func (m Metric) Unit() string {
	if m.Kind == KindKPI {
		return "MMUSD"
	}
	return "MW"
}

// EmptyText describes a country without a positive value.
func (m Metric) EmptyText() string {
	if m.Kind == KindKPI {
		return "No data"
	}
	return "No investment"
}

// Values extracts the metric for every country in the snapshot.
func (m Metric) Values(snap *dataset.Snapshot) map[string]float64 {
	out := make(map[string]float64)
	if snap == nil {
		return out
	}
	switch m.Kind {
	case KindKPI:
		for name, k := range snap.KPI.Countries {
			out[name] = m.kpi(k)
		}
	default:
		for name, inv := range snap.Investment.Countries {
			out[name] = m.investment(inv)
		}
	}
	return out
}
