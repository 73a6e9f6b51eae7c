package analytics

import (
	"sort"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
)

// renewableTiers classifies a portfolio by its Solar+Wind percent, highest
// threshold first.
var renewableTiers = []struct {
	above    float64
	strategy Strategy
}{
	{60, StrategyDecarbonization},
	{30, StrategyBalanced},
	{-1, StrategyStability},
}

// renewableTechnologies mark a portfolio as renewable-focused when one of
// them is the top investment.
var renewableTechnologies = map[dataset.Technology]bool{
	dataset.Solar: true,
	dataset.Wind:  true,
	dataset.BESS:  true,
}

// shares returns the positive entries of a mix, largest first. Ties keep the
// technology order.
func shares(techs []dataset.Technology, get func(dataset.Technology) float64) ([]Share, float64) {
	total := 0.0
	out := make([]Share, 0, len(techs))
	for _, t := range techs {
		v := get(t)
		if v <= 0 {
			continue
		}
		total += v
		out = append(out, Share{Technology: t, Value: v})
	}
	for i := range out {
		out[i].Percent = out[i].Value / total * 100
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, total
}

// GenerationShares splits a generation mix into sorted shares.
func GenerationShares(m dataset.GenerationMix) ([]Share, float64) {
	return shares(dataset.GenerationTechnologies, m.Get)
}

// Profile summarizes an investment mix.
func Profile(m dataset.InvestmentMix) InvestmentProfile {
	s, total := shares(dataset.InvestmentTechnologies, m.Get)
	p := InvestmentProfile{TotalMW: total, Shares: s, Strategy: StrategyNone}
	if len(s) == 0 {
		return p
	}
	p.Top = s[0].Technology
	p.RenewableFocus = renewableTechnologies[p.Top]
	p.RenewableShare = (m.Solar + m.Wind) / total * 100
	for _, tier := range renewableTiers {
		if p.RenewableShare > tier.above {
			p.Strategy = tier.strategy
			break
		}
	}
	return p
}
