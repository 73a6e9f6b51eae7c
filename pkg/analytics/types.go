package analytics

import "github.com/ChicagoDave/latamgrid/pkg/dataset"

// Share is one technology's part of a mix.
type Share struct {
	Technology dataset.Technology `json:"technology"`
	Value      float64            `json:"value"`
	Percent    float64            `json:"percent"`
}

// Strategy classifies an investment portfolio by its renewable share.
type Strategy string

const (
	StrategyDecarbonization Strategy = "decarbonization"
	StrategyBalanced        Strategy = "balanced"
	StrategyStability       Strategy = "stability"
	StrategyNone            Strategy = "none"
)

// InvestmentProfile summarizes new-build capacity.
type InvestmentProfile struct {
	TotalMW        float64            `json:"total_mw"`
	Shares         []Share            `json:"shares"`
	Top            dataset.Technology `json:"top_technology,omitempty"`
	RenewableFocus bool               `json:"renewable_focus"`
	// RenewableShare is the percent of new capacity that is Solar or Wind.
	RenewableShare float64  `json:"renewable_share_pct"`
	Strategy       Strategy `json:"strategy"`
}

// Interconnection summarizes transmission touching a country or the region.
type Interconnection struct {
	Lines         int      `json:"lines"`
	NewLines      int      `json:"new_lines"`
	CapacityMW    float64  `json:"capacity_mw"`
	NewCapacityMW float64  `json:"new_line_capacity_mw"`
	Partners      []string `json:"partners,omitempty"`
}

// RegionalSummary is the region-wide view of a snapshot.
type RegionalSummary struct {
	Key              string            `json:"key"`
	GenerationGWh    float64           `json:"generation_gwh"`
	Generation       []Share           `json:"generation"`
	Investment       InvestmentProfile `json:"investment"`
	TotalCost        float64           `json:"total_cost"`
	TotalInvestment  float64           `json:"total_investment"`
	TotalEmissions   float64           `json:"total_emissions"`
	GeopoliticalCost float64           `json:"geopolitical_cost"`
	Transmission     Interconnection   `json:"transmission"`
	Countries        int               `json:"countries"`
}

// CountrySummary is the per-country view of a snapshot.
type CountrySummary struct {
	Name          string             `json:"name"`
	Code          string             `json:"code,omitempty"`
	GenerationGWh float64            `json:"generation_gwh"`
	Generation    []Share            `json:"generation"`
	Investment    InvestmentProfile  `json:"investment"`
	KPI           dataset.CountryKPI `json:"kpi"`
	// NetBalance is imports minus exports.
	NetBalance   float64         `json:"net_balance"`
	Transmission Interconnection `json:"transmission"`
}
