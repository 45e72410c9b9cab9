// Package metrics provides Prometheus instrumentation for the settlement service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecoverableRows counts input problems that were coerced or skipped, by kind.
	RecoverableRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionledger_recoverable_rows_total",
		Help: "Input rows coerced or excluded during normalization and aggregation",
	}, []string{"kind"})

	// SnapshotFetches counts snapshot loads by outcome (ok, cached, error).
	SnapshotFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionledger_snapshot_fetches_total",
		Help: "Snapshot loads from the sheet source",
	}, []string{"result"})

	// SnapshotFetchDuration tracks how long a full snapshot load takes.
	SnapshotFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auctionledger_snapshot_fetch_duration_seconds",
		Help:    "Snapshot load latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// SnapshotRows tracks the size of the last loaded snapshot.
	SnapshotRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "auctionledger_snapshot_rows",
		Help: "Rows in the most recently loaded snapshot",
	}, []string{"sheet"})

	// Recomputations counts full recomputation passes by report kind.
	Recomputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionledger_recomputations_total",
		Help: "Full recomputation passes",
	}, []string{"report"})

	// LedgerToggles counts fulfillment toggles by direction and resulting state.
	LedgerToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionledger_ledger_toggles_total",
		Help: "Fulfillment toggles",
	}, []string{"direction", "state"})

	// HTTPRequestDuration tracks API request duration by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auctionledger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "route", "status"})
)

// RecordDiagnostics adds a pass's recoverable-problem counts to RecoverableRows.
func RecordDiagnostics(counts map[string]int) {
	for kind, n := range counts {
		RecoverableRows.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveFetch records one snapshot load.
func ObserveFetch(result string, started time.Time) {
	SnapshotFetches.WithLabelValues(result).Inc()
	SnapshotFetchDuration.Observe(time.Since(started).Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
