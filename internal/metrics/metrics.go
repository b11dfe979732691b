package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ManifestsScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "manifests_scanned_total",
		Help:      "Total manifests discovered past the watermark.",
	})
	FilesExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "files_extracted_total",
		Help:      "Total data files fetched and parsed.",
	})
	FilesMissing = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "files_missing_total",
		Help:      "Total data files skipped because they were missing or unreadable.",
	})
	DomainsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "domains_added_total",
		Help:      "Total new unique domains merged into the segment.",
	})
	RunsSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "runs_succeeded_total",
		Help:      "Total reconciliation runs that completed.",
	})
	RunsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "segment_sync",
		Name:      "runs_failed_total",
		Help:      "Total reconciliation runs that aborted with an error.",
	})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(ManifestsScanned, FilesExtracted, FilesMissing, DomainsAdded, RunsSucceeded, RunsFailed)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
