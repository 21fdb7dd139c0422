package storage

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
)

var (
	// ErrEntryNotFound indicates no entry with the given ID is in the selection.
	ErrEntryNotFound = errors.New("selection entry not found")
	// ErrInvalidEntry indicates an entry violates validation rules.
	ErrInvalidEntry = errors.New("selection entries need a label and finite values")
)

// Entry is one physical unit in the accumulated selection list.
type Entry struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Weight    float64            `json:"weight"`
	Auxiliary map[string]float64 `json:"auxiliary,omitempty"`
	Source    string             `json:"source,omitempty"`
	AddedAt   time.Time          `json:"addedAt"`
}

// Line summarises the entries sharing a label.
type Line struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

// Storage provides access to the caller-owned selection list.
type Storage interface {
	List() ([]Entry, error)
	Add(entries []Entry) error
	Remove(id string) error
	Clear() error
	Close() error
}

// NewEntries creates quantity entries for item, one per unit.
func NewEntries(item grouping.Item, quantity int, source string, now time.Time) []Entry {
	entries := make([]Entry, 0, quantity)
	for range quantity {
		entries = append(entries, Entry{
			ID:        uuid.NewString(),
			Label:     item.Label,
			Weight:    item.Weight,
			Auxiliary: maps.Clone(item.Auxiliary),
			Source:    source,
			AddedAt:   now,
		})
	}
	return entries
}

// Snapshot converts entries into partitioner input in list order.
func Snapshot(entries []Entry) []grouping.Item {
	items := make([]grouping.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, grouping.Item{
			Label:     entry.Label,
			Weight:    entry.Weight,
			Auxiliary: maps.Clone(entry.Auxiliary),
		})
	}
	return items
}

// Tally counts entries per label, keeping the weight of the first entry seen,
// sorted by label.
func Tally(entries []Entry) []Line {
	index := make(map[string]int)
	lines := make([]Line, 0)
	for _, entry := range entries {
		if i, ok := index[entry.Label]; ok {
			lines[i].Count++
			continue
		}
		index[entry.Label] = len(lines)
		lines = append(lines, Line{Label: entry.Label, Weight: entry.Weight, Count: 1})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Label < lines[j].Label
	})
	return lines
}

func validateEntries(entries []Entry) error {
	for _, entry := range entries {
		if entry.ID == "" || strings.TrimSpace(entry.Label) == "" {
			return ErrInvalidEntry
		}
		if math.IsNaN(entry.Weight) || math.IsInf(entry.Weight, 0) {
			return fmt.Errorf("%w: %s has weight %v", ErrInvalidEntry, entry.Label, entry.Weight)
		}
		for name, value := range entry.Auxiliary {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("%w: %s has %s %v", ErrInvalidEntry, entry.Label, name, value)
			}
		}
	}
	return nil
}

func cloneEntries(src []Entry) []Entry {
	out := make([]Entry, len(src))
	for i, entry := range src {
		entry.Auxiliary = maps.Clone(entry.Auxiliary)
		out[i] = entry
	}
	return out
}
