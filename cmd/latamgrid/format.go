package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChicagoDave/latamgrid/pkg/analytics"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/heatmap"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(e)
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			printResult(w)
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(res validation.Result) {
	fmt.Printf("  [%s] %s\n", res.Level, res.Message)
	if res.Source != "" || res.Path != "" {
		fmt.Printf("    -> %s %s", res.Source, res.Path)
		if res.ActualValue != nil {
			fmt.Printf(" = %v", res.ActualValue)
		}
		fmt.Println()
	}
	if res.Expected != "" {
		fmt.Printf("    expected: %s\n", res.Expected)
	}
	for _, s := range res.Suggestions {
		fmt.Printf("    * %s\n", s)
	}
}

func printOptions(cfg scenario.Config, opts map[scenario.Field][]string) {
	fmt.Printf("Scenario %s\n\n", cfg.Key())
	for _, f := range scenario.Order {
		current := cfg.Value(f)
		vals := make([]string, len(opts[f]))
		for i, v := range opts[f] {
			if v == current {
				v = "[" + v + "]"
			}
			vals[i] = v
		}
		fmt.Printf("  %-14s %s\n", f, strings.Join(vals, "  "))
	}
}

func printResolution(from, to scenario.Config) {
	fmt.Printf("From: %s\n", from.Key())
	fmt.Printf("To:   %s\n", to.Key())
	for _, f := range scenario.Order {
		if a, b := from.Value(f), to.Value(f); a != b {
			fmt.Printf("  %-14s %s -> %s\n", f, a, b)
		}
	}
}

func printHeatmap(snap *dataset.Snapshot, hm heatmap.Result) {
	fmt.Printf("%s (%s) for %s\n", hm.Metric.Title(), hm.Metric.Unit(), snap.Key)
	fmt.Println(strings.Repeat("=", 40))

	if hm.Scale.NoData {
		fmt.Println(hm.Metric.EmptyText())
	} else {
		names := make([]string, 0, len(hm.Values))
		for n := range hm.Values {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Printf("%-22s %12s  %s\n", "Country", "Value", "Color")
		for _, n := range names {
			fmt.Printf("%-22s %12s  %s\n", n, heatmap.FormatNumber(hm.Values[n]), hm.Color(n))
		}
	}

	legend := hm.Legend()
	fmt.Println()
	fmt.Println(legend.Title)
	if legend.Message != "" {
		fmt.Printf("  %s\n", legend.Message)
	}
	for _, row := range legend.Rows {
		fmt.Printf("  %s  %s\n", row.Color, row.Label)
	}
}

func printShares(shares []analytics.Share, unit string) {
	for _, s := range shares {
		fmt.Printf("    %-14s %12.1f %s  %5.1f%%\n", s.Technology, s.Value, unit, s.Percent)
	}
}

func printInvestment(p analytics.InvestmentProfile) {
	fmt.Printf("  New capacity:           %.0f MW\n", p.TotalMW)
	if p.Top != "" {
		fmt.Printf("  Top technology:         %s\n", p.Top)
	}
	fmt.Printf("  Solar + Wind share:     %.1f%%\n", p.RenewableShare)
	fmt.Printf("  Strategy:               %s\n", p.Strategy)
	printShares(p.Shares, "MW ")
}

func printInterconnection(ic analytics.Interconnection) {
	fmt.Printf("  Lines:                  %d (%d new)\n", ic.Lines, ic.NewLines)
	fmt.Printf("  Capacity:               %.0f MW (%.0f MW on new lines)\n", ic.CapacityMW, ic.NewCapacityMW)
	if len(ic.Partners) > 0 {
		fmt.Printf("  Partners:               %s\n", strings.Join(ic.Partners, ", "))
	}
}

func printRegionalSummary(s *analytics.RegionalSummary) {
	fmt.Printf("Regional Summary: %s\n", s.Key)
	fmt.Println("==================")
	fmt.Println()
	fmt.Printf("  Countries:              %d\n", s.Countries)
	fmt.Printf("  Total cost:             %s\n", heatmap.FormatNumber(s.TotalCost))
	fmt.Printf("  Total investment:       %s\n", heatmap.FormatNumber(s.TotalInvestment))
	fmt.Printf("  Total emissions:        %s\n", heatmap.FormatNumber(s.TotalEmissions))
	fmt.Printf("  Geopolitical cost:      %s\n", heatmap.FormatNumber(s.GeopoliticalCost))

	fmt.Println()
	fmt.Printf("Generation (%.0f GWh)\n", s.GenerationGWh)
	printShares(s.Generation, "GWh")

	fmt.Println()
	fmt.Println("Investment")
	printInvestment(s.Investment)

	fmt.Println()
	fmt.Println("Transmission")
	printInterconnection(s.Transmission)
}

func printCountrySummary(s *analytics.CountrySummary) {
	title := s.Name
	if s.Code != "" {
		title = fmt.Sprintf("%s (%s)", s.Name, s.Code)
	}
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Println()
	fmt.Printf("  Loss to trust:          %.2f\n", s.KPI.LossToTrust)
	fmt.Printf("  Loss to not trust:      %.2f\n", s.KPI.LossToNotTrust)
	fmt.Printf("  Operation cost:         %s\n", heatmap.FormatNumber(s.KPI.OperationCost))
	fmt.Printf("  Emissions:              %s\n", heatmap.FormatNumber(s.KPI.TotalEmissions))
	fmt.Printf("  Imports / exports:      %.1f / %.1f (net %+.1f)\n",
		s.KPI.EnergyBalance.Imports, s.KPI.EnergyBalance.Exports, s.NetBalance)

	fmt.Println()
	fmt.Printf("Generation (%.0f GWh)\n", s.GenerationGWh)
	printShares(s.Generation, "GWh")

	fmt.Println()
	fmt.Println("Investment")
	printInvestment(s.Investment)

	fmt.Println()
	fmt.Println("Transmission")
	printInterconnection(s.Transmission)
}
