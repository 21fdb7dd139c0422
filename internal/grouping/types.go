package grouping

// Item is a single weighted unit handed to the partitioner. Duplicate items
// (same label and weight) are distinct physical units.
type Item struct {
	Label     string             `json:"label"`
	Weight    float64            `json:"weight"`
	Auxiliary map[string]float64 `json:"auxiliary,omitempty"`
}

// Group is a closed run of items whose weights were accumulated towards the target.
// Members keep the order they were added in, seed first.
type Group struct {
	Members        []Item             `json:"members"`
	TotalWeight    float64            `json:"totalWeight"`
	TotalAuxiliary map[string]float64 `json:"totalAuxiliary,omitempty"`
	Deviation      float64            `json:"deviation"`
}

// Partitioner describes the behaviour required from a grouping strategy.
type Partitioner interface {
	Partition(items []Item, target float64) []Group
}
