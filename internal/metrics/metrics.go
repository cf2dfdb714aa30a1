// Package metrics exposes the Prometheus gauges/counters introduced in
// SPEC_FULL.md §9.4, grounded on the direct client_golang usage in
// vadym-shukurov-arkiv-sre-blueprint/apps/arkiv-ingestion and
// thirdweb-dev-insight.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CursorHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_cursor_height",
		Help: "Latest ingested block cursor per chain.",
	}, []string{"chain"})

	BlocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_blocks_processed_total",
		Help: "Blocks processed by the block detector per chain.",
	}, []string{"chain"})

	ContractsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_contracts_detected_total",
		Help: "Contract-creation transactions observed per chain.",
	}, []string{"chain"})

	MetadataQueueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_metadata_queue_size",
		Help: "Current metadata-queue depth per chain.",
	}, []string{"chain"})

	SourceQueueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_source_queue_size",
		Help: "Current source-queue depth per chain.",
	}, []string{"chain"})

	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_fetch_total",
		Help: "Fetch attempts per chain, stage and outcome.",
	}, []string{"chain", "stage", "outcome"})
)

// Serve runs the metrics HTTP server on addr. It blocks until the
// server fails and returns that error, so callers run it in its own
// goroutine; it has no shutdown hook and stops only with the process.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
