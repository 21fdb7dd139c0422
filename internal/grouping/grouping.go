package grouping

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type greedyPartitioner struct{}

// New creates a Partitioner based on greedy best-fit selection.
func New() Partitioner {
	return &greedyPartitioner{}
}

func (p *greedyPartitioner) Partition(items []Item, target float64) []Group {
	remaining := slices.Clone(items)
	slices.SortStableFunc(remaining, func(a, b Item) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	groups := make([]Group, 0)
	for len(remaining) > 0 {
		group := Group{}
		group.add(remaining[0])
		remaining = slices.Delete(remaining, 0, 1)

		for group.TotalWeight < target && len(remaining) > 0 {
			best := bestFit(remaining, group.TotalWeight, target)
			group.add(remaining[best])
			remaining = slices.Delete(remaining, best, best+1)
		}

		group.Deviation = group.TotalWeight - target
		groups = append(groups, group)
	}

	return groups
}

// bestFit returns the index of the candidate whose weight brings total closest
// to target. The lowest index wins ties.
func bestFit(candidates []Item, total, target float64) int {
	best := -1
	minDiff := math.Inf(1)
	for i, candidate := range candidates {
		diff := math.Abs(total + candidate.Weight - target)
		if diff < minDiff {
			minDiff = diff
			best = i
		}
	}
	if best < 0 {
		// no comparable diff (non-finite weights); keep draining in order
		return 0
	}
	return best
}

func (g *Group) add(item Item) {
	g.Members = append(g.Members, item)
	g.TotalWeight += item.Weight
	for name, value := range item.Auxiliary {
		if g.TotalAuxiliary == nil {
			g.TotalAuxiliary = make(map[string]float64, len(item.Auxiliary))
		}
		g.TotalAuxiliary[name] += value
	}
}

// Details renders the members as "label(weight) + label(weight)".
func (g Group) Details() string {
	parts := make([]string, 0, len(g.Members))
	for _, member := range g.Members {
		parts = append(parts, fmt.Sprintf("%s(%s)", member.Label, FormatNumber(member.Weight)))
	}
	return strings.Join(parts, " + ")
}

// Underfilled reports whether the group closed below target.
func (g Group) Underfilled() bool {
	return g.Deviation < 0
}

// FormatNumber renders v with the fewest digits that round-trip.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
