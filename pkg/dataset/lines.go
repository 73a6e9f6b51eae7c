package dataset

import (
	"fmt"
	"strings"

	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// FlowFactor scales capacity into the placeholder flow.
const FlowFactor = 0.35

// LineIDSeparator splits an investment line id into its two country codes.
const LineIDSeparator = "-"

// DeriveFlow returns the placeholder flow for a line: capacity times
// FlowFactor, positive exactly when from sorts after to.
func DeriveFlow(from, to string, capacity float64) float64 {
	flow := capacity * FlowFactor
	if from > to {
		return flow
	}
	return -flow
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// MergeLines combines existing interconnections with transmission
// investments.
//
// An investment whose id matches a static line adds to its capacity. An
// investment whose id does not match, but whose two codes resolve to the
// endpoints of an existing line in either order, also adds to that line.
// Otherwise it becomes a new line between the two resolved countries. Ids
// that do not split into two resolvable codes are dropped with an info
// finding. Non-positive investments are ignored.
//
// Static lines keep their input order, followed by new lines in investment
// order.
func MergeLines(static []RawStaticLine, invest []RawInvestmentLine, source string, r *validation.Report) []Line {
	lines := make([]Line, 0, len(static)+len(invest))
	byID := make(map[string]int, len(static)+len(invest))
	byPair := make(map[string]int, len(static)+len(invest))

	for i, s := range static {
		if s.ID == "" {
			continue
		}
		from, to := country.NormalizeKey(s.From), country.NormalizeKey(s.To)
		capacity := max(s.ExistingCapacity, 0)
		pk := pairKey(from, to)

		idx, dup := byID[s.ID]
		if !dup {
			idx, dup = byPair[pk]
		}
		if dup {
			lines[idx].Capacity += capacity
			byID[s.ID] = idx
			if r != nil {
				r.AddWarning(validation.Result{
					Level:   validation.LevelAssembly,
					Message: fmt.Sprintf("static line %q duplicates %q; capacities summed", s.ID, lines[idx].ID),
					Source:  source,
					Path:    fmt.Sprintf("staticLines[%d]", i),
				})
			}
			continue
		}
		byID[s.ID] = len(lines)
		byPair[pk] = len(lines)
		lines = append(lines, Line{ID: s.ID, From: from, To: to, Capacity: capacity})
	}

	for i, inv := range invest {
		if inv.NewCapacityMW <= 0 {
			continue
		}
		if idx, ok := byID[inv.ID]; ok {
			lines[idx].Capacity += inv.NewCapacityMW
			continue
		}

		codes := strings.Split(inv.ID, LineIDSeparator)
		var a, b country.Country
		okA, okB := false, false
		// Legacy codes resolve too, matching how country keys are normalized.
		if len(codes) == 2 {
			a, okA = country.Resolve(codes[0])
			b, okB = country.Resolve(codes[1])
		}
		if !okA || !okB {
			if r != nil {
				r.AddInfo(validation.Result{
					Level:       validation.LevelAssembly,
					Message:     fmt.Sprintf("investment line %q does not name two known countries; dropped", inv.ID),
					Source:      source,
					Path:        fmt.Sprintf("transmission.lines[%d]", i),
					ActualValue: inv.NewCapacityMW,
				})
			}
			continue
		}

		pk := pairKey(a.Name, b.Name)
		if idx, ok := byPair[pk]; ok {
			lines[idx].Capacity += inv.NewCapacityMW
			byID[inv.ID] = idx
			continue
		}
		byID[inv.ID] = len(lines)
		byPair[pk] = len(lines)
		lines = append(lines, Line{ID: inv.ID, From: a.Name, To: b.Name, Capacity: inv.NewCapacityMW, IsNew: true})
	}

	for i := range lines {
		lines[i].Flow = DeriveFlow(lines[i].From, lines[i].To, lines[i].Capacity)
	}
	return lines
}
