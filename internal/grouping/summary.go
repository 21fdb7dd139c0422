package grouping

import (
	"fmt"
	"math"
)

// Summary aggregates a partition for reporting.
type Summary struct {
	Target         float64            `json:"target"`
	TotalGroups    int                `json:"totalGroups"`
	TotalItems     int                `json:"totalItems"`
	TotalWeight    float64            `json:"totalWeight"`
	TotalAuxiliary map[string]float64 `json:"totalAuxiliary,omitempty"`
	Underfilled    int                `json:"underfilled"`
}

// Summarize derives totals across all groups.
func Summarize(target float64, groups []Group) Summary {
	summary := Summary{
		Target:      target,
		TotalGroups: len(groups),
	}
	for _, group := range groups {
		summary.TotalItems += len(group.Members)
		summary.TotalWeight += group.TotalWeight
		for name, value := range group.TotalAuxiliary {
			if summary.TotalAuxiliary == nil {
				summary.TotalAuxiliary = make(map[string]float64)
			}
			summary.TotalAuxiliary[name] += value
		}
		if group.Underfilled() {
			summary.Underfilled++
		}
	}
	return summary
}

// ValidateTarget rejects targets the partitioner cannot compare against.
func ValidateTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return ErrInvalidTarget
	}
	return nil
}

// ValidateItems rejects items carrying NaN or infinite values.
func ValidateItems(items []Item) error {
	for i, item := range items {
		if !finite(item.Weight) {
			return fmt.Errorf("item %d (%s): weight: %w", i, item.Label, ErrInvalidWeight)
		}
		for name, value := range item.Auxiliary {
			if !finite(value) {
				return fmt.Errorf("item %d (%s): %s: %w", i, item.Label, name, ErrInvalidWeight)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
