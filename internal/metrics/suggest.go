package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Suggestion engine Prometheus metrics.
var (
	RebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "omnibar",
			Name:      "index_rebuilds_total",
			Help:      "Total number of suggestion index rebuilds",
		},
	)

	RebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "omnibar",
			Name:      "index_rebuild_duration_seconds",
			Help:      "Suggestion index rebuild duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	IndexEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "omnibar",
			Name:      "index_entries",
			Help:      "Entries in the published suggestion index",
		},
		[]string{"origin"}, // "corpus" / "history"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnibar",
			Name:      "queries_total",
			Help:      "Suggestion queries served",
		},
		[]string{"result"}, // "hit" / "empty"
	)
)

var registerSuggestOnce sync.Once

// RegisterSuggestMetrics registers the engine metrics. Safe to call
// repeatedly and from concurrent goroutines.
func RegisterSuggestMetrics() {
	registerSuggestOnce.Do(func() {
		prometheus.MustRegister(RebuildsTotal)
		prometheus.MustRegister(RebuildDuration)
		prometheus.MustRegister(IndexEntries)
		prometheus.MustRegister(QueriesTotal)
	})
}
