package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder records observations in Prometheus collectors.
type PromRecorder struct {
	partitions prometheus.Counter
	items      prometheus.Counter
	groups     prometheus.Counter
	duration   prometheus.Histogram
	ingests    *prometheus.CounterVec
}

// NewPromRecorder registers the grouping collectors on reg. If reg is nil,
// the default registerer is used. Collectors that are already registered are
// reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PromRecorder{
		partitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouping_partitions_total",
			Help: "Total number of partition runs",
		}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouping_items_total",
			Help: "Total number of items partitioned",
		}),
		groups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grouping_groups_total",
			Help: "Total number of groups produced",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grouping_duration_seconds",
			Help:    "Time spent partitioning items",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_files_total",
			Help: "Total number of ingested spreadsheets",
		}, []string{"format", "result"}),
	}

	var err error
	if r.partitions, err = register(reg, r.partitions); err != nil {
		return nil, err
	}
	if r.items, err = register(reg, r.items); err != nil {
		return nil, err
	}
	if r.groups, err = register(reg, r.groups); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.ingests, err = register(reg, r.ingests); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObservePartition records one partition run.
func (r *PromRecorder) ObservePartition(items, groups int, elapsed time.Duration) {
	r.partitions.Inc()
	r.items.Add(float64(items))
	r.groups.Add(float64(groups))
	r.duration.Observe(elapsed.Seconds())
}

// ObserveIngest records one ingested file.
func (r *PromRecorder) ObserveIngest(format string, _ int, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	r.ingests.WithLabelValues(format, result).Inc()
}
