package dataset

import (
	"time"

	"github.com/ChicagoDave/latamgrid/pkg/scenario"
)

// Technology is a generation or investment technology.
type Technology string

const (
	Solar         Technology = "Solar"
	Wind          Technology = "Wind"
	Nuclear       Technology = "Nuclear"
	Hydroelectric Technology = "Hydroelectric"
	Coal          Technology = "Coal"
	Gas           Technology = "Gas"
	Diesel        Technology = "Diesel"
	BESS          Technology = "BESS"
)

// GenerationTechnologies lists the technologies of a GenerationMix.
var GenerationTechnologies = []Technology{Solar, Wind, Nuclear, Hydroelectric, Coal, Gas, Diesel}

// InvestmentTechnologies lists the technologies of an InvestmentMix.
var InvestmentTechnologies = []Technology{BESS, Coal, Diesel, Gas, Solar, Wind}

// GenerationMix is energy output by technology, in GWh.
type GenerationMix struct {
	Solar         float64 `json:"Solar"`
	Wind          float64 `json:"Wind"`
	Nuclear       float64 `json:"Nuclear"`
	Hydroelectric float64 `json:"Hydroelectric"`
	Coal          float64 `json:"Coal"`
	Gas           float64 `json:"Gas"`
	Diesel        float64 `json:"Diesel"`
}

// Get returns the output of one technology; unknown technologies are zero.
func (g GenerationMix) Get(t Technology) float64 {
	switch t {
	case Solar:
		return g.Solar
	case Wind:
		return g.Wind
	case Nuclear:
		return g.Nuclear
	case Hydroelectric:
		return g.Hydroelectric
	case Coal:
		return g.Coal
	case Gas:
		return g.Gas
	case Diesel:
		return g.Diesel
	}
	return 0
}

// Total returns the sum over all technologies.
func (g GenerationMix) Total() float64 {
	sum := 0.0
	for _, t := range GenerationTechnologies {
		sum += g.Get(t)
	}
	return sum
}

// InvestmentMix is newly built capacity by technology, in MW.
type InvestmentMix struct {
	BESS   float64 `json:"BESS"`
	Coal   float64 `json:"Coal"`
	Diesel float64 `json:"Diesel"`
	Gas    float64 `json:"Gas"`
	Solar  float64 `json:"Solar"`
	Wind   float64 `json:"Wind"`
}

// Get returns the capacity of one technology; unknown technologies are zero.
func (m InvestmentMix) Get(t Technology) float64 {
	switch t {
	case BESS:
		return m.BESS
	case Coal:
		return m.Coal
	case Diesel:
		return m.Diesel
	case Gas:
		return m.Gas
	case Solar:
		return m.Solar
	case Wind:
		return m.Wind
	}
	return 0
}

// Total returns the sum over all technologies.
func (m InvestmentMix) Total() float64 {
	sum := 0.0
	for _, t := range InvestmentTechnologies {
		sum += m.Get(t)
	}
	return sum
}

// EnergyBalance is a country's cross-border energy exchange. Exports are
// always non-negative.
type EnergyBalance struct {
	Imports float64 `json:"imports"`
	Exports float64 `json:"exports"`
}

// CountryKPI holds per-country indicators.
type CountryKPI struct {
	LossToTrust    float64       `json:"lossToTrust"`
	LossToNotTrust float64       `json:"lossToNotTrust"`
	OperationCost  float64       `json:"operationCost"`
	TotalEmissions float64       `json:"totalEmissions"`
	EnergyBalance  EnergyBalance `json:"energyBalance"`
}

// RegionalKPI holds region-wide indicators and the merged line set.
type RegionalKPI struct {
	TotalCost        float64 `json:"totalCost"`
	TotalInvestment  float64 `json:"totalInvestment"`
	TotalEmissions   float64 `json:"totalEmissions"`
	GeopoliticalCost float64 `json:"geopoliticalCost"`
	Lines            []Line  `json:"lines"`
}

// Line is a transmission link between two countries.
type Line struct {
	ID       string  `json:"id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
	// Flow is a deterministic placeholder derived from capacity and endpoint
	// names for stable rendering. It is not a measured or simulated flow.
	Flow  float64 `json:"flow"`
	IsNew bool    `json:"isNew"`
}

// Touches reports whether the line has name as an endpoint.
func (l Line) Touches(name string) bool {
	return l.From == name || l.To == name
}

type GenerationData struct {
	Regional  GenerationMix            `json:"regional"`
	Countries map[string]GenerationMix `json:"countries"`
}

type KPIData struct {
	Regional  RegionalKPI           `json:"regional"`
	Countries map[string]CountryKPI `json:"countries"`
}

type InvestmentData struct {
	Regional  InvestmentMix            `json:"regional"`
	Countries map[string]InvestmentMix `json:"countries"`
}

// Snapshot is the complete, consistent data for one scenario. A snapshot is
// never modified after assembly; a config change produces a new one.
type Snapshot struct {
	ID         string          `json:"id"`
	Config     scenario.Config `json:"config"`
	Key        string          `json:"key"`
	Generation GenerationData  `json:"generation"`
	KPI        KPIData         `json:"kpi"`
	Investment InvestmentData  `json:"investment"`
	LoadedAt   time.Time       `json:"loadedAt"`
}
