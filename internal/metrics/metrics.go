// Package metrics instruments grouping runs and spreadsheet ingestion.
package metrics

import "time"

// Recorder receives grouping and ingestion observations.
type Recorder interface {
	ObservePartition(items, groups int, elapsed time.Duration)
	ObserveIngest(format string, items int, err error)
}

type nopRecorder struct{}

// Nop returns a Recorder that discards observations.
func Nop() Recorder {
	return nopRecorder{}
}

func (nopRecorder) ObservePartition(int, int, time.Duration) {}

func (nopRecorder) ObserveIngest(string, int, error) {}
