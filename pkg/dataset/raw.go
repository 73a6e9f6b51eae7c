package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChicagoDave/latamgrid/pkg/scenario"
)

// Kind identifies one of the three per-scenario documents.
type Kind string

const (
	KindScenario   Kind = "scenario"
	KindKPI        Kind = "kpi"
	KindInvestment Kind = "investment"
)

// Kinds lists the documents every scenario requires.
var Kinds = []Kind{KindScenario, KindKPI, KindInvestment}

// DocumentName returns the file name of one document for a scenario key,
// e.g. "2025-Isolated-WithSovereignty-BaseCase-High-High_kpi.json".
func DocumentName(key string, k Kind) string {
	return key + "_" + string(k) + ".json"
}

// ParseDocumentName is the inverse of DocumentName.
func ParseDocumentName(name string) (string, Kind, bool) {
	for _, k := range Kinds {
		if key, found := strings.CutSuffix(name, "_"+string(k)+".json"); found && key != "" {
			return key, k, true
		}
	}
	return "", "", false
}

// RawGenerationMix is a generation mix as stored, with hydro split into
// reservoir and run-of-river.
type RawGenerationMix struct {
	Solar        float64 `json:"Solar"`
	Wind         float64 `json:"Wind"`
	Nuclear      float64 `json:"Nuclear"`
	HydroEmbalse float64 `json:"Hydro_Embalse"`
	HydroPasada  float64 `json:"Hydro_Pasada"`
	Coal         float64 `json:"Coal"`
	Gas          float64 `json:"Gas"`
	Diesel       float64 `json:"Diesel"`
}

type RawCountryGeneration struct {
	GenerationMix *RawGenerationMix `json:"generationMix"`
}

type RawRegionalGeneration struct {
	GenerationMix *RawGenerationMix `json:"generationMix"`
}

// RawLineCoordinates names the two endpoints used for drawing; carried but
// unused, since endpoints are placed from the country registry.
type RawLineCoordinates struct {
	C1 string `json:"c1"`
	C2 string `json:"c2"`
}

// RawStaticLine is an existing interconnection.
type RawStaticLine struct {
	ID               string              `json:"id"`
	From             string              `json:"from"`
	To               string              `json:"to"`
	ExistingCapacity float64             `json:"existingCapacity"`
	Coordinates      *RawLineCoordinates `json:"coordinates,omitempty"`
}

// RawScenarioDocument is the <key>_scenario.json document: generation mix
// per country and region plus the static transmission topology.
type RawScenarioDocument struct {
	ScenarioParameters *scenario.Config                `json:"scenarioParameters"`
	Regional           *RawRegionalGeneration          `json:"regional"`
	Countries          map[string]RawCountryGeneration `json:"countries"`
	StaticLines        []RawStaticLine                 `json:"staticLines"`
}

type RawEnergyBalance struct {
	Imports float64 `json:"imports"`
	Exports float64 `json:"exports"`
}

type RawCountryKPI struct {
	LossToTrust    float64           `json:"lossToTrust"`
	LossToNotTrust float64           `json:"lossToNotTrust"`
	OperationCost  float64           `json:"operationCost"`
	TotalEmissions float64           `json:"totalEmissions"`
	EnergyBalance  *RawEnergyBalance `json:"energyBalance"`
}

type RawRegionalKPI struct {
	TotalCost        float64 `json:"totalCost"`
	TotalInvestment  float64 `json:"totalInvestment"`
	TotalEmissions   float64 `json:"totalEmissions"`
	GeopoliticalCost float64 `json:"geopoliticalCost"`
}

// RawKPIDocument is the <key>_kpi.json document.
type RawKPIDocument struct {
	Regional  *RawRegionalKPI          `json:"regional"`
	Countries map[string]RawCountryKPI `json:"countries"`
}

// RawInvestmentLine is newly built capacity on a link, identified by
// "<code>-<code>".
type RawInvestmentLine struct {
	ID            string  `json:"id"`
	NewCapacityMW float64 `json:"newCapacityMW"`
}

type RawInvestmentGeneration struct {
	Regional  *InvestmentMix           `json:"regional"`
	Countries map[string]InvestmentMix `json:"countries"`
}

type RawTransmission struct {
	Lines []RawInvestmentLine `json:"lines"`
}

// RawInvestmentDocument is the <key>_investment.json document.
type RawInvestmentDocument struct {
	Generation   *RawInvestmentGeneration `json:"generation"`
	Transmission *RawTransmission         `json:"transmission"`
}

// Documents holds the three decoded documents for one scenario.
type Documents struct {
	Scenario   *RawScenarioDocument
	KPI        *RawKPIDocument
	Investment *RawInvestmentDocument
}

// DecodeDocuments parses the raw bytes of the three documents, keyed by kind.
// Any missing or malformed document fails the whole set.
func DecodeDocuments(key string, raw map[Kind][]byte) (Documents, error) {
	var docs Documents
	targets := map[Kind]any{
		KindScenario:   &docs.Scenario,
		KindKPI:        &docs.KPI,
		KindInvestment: &docs.Investment,
	}
	for _, k := range Kinds {
		data, ok := raw[k]
		if !ok || len(data) == 0 {
			return Documents{}, fmt.Errorf("%w: %s: missing document", ErrDataUnavailable, DocumentName(key, k))
		}
		if err := json.Unmarshal(data, targets[k]); err != nil {
			return Documents{}, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, DocumentName(key, k), err)
		}
	}
	return docs, nil
}
