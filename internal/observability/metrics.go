package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_download_bytes_total",
			Help: "Bytes written to the local CSV snapshot",
		},
	)
	FeedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_rows_total",
			Help: "Feed rows by outcome (read, kept, malformed)",
		},
		[]string{"outcome"},
	)
	ProductsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_inserted_total",
			Help: "Product variants inserted into the store",
		},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Ingestion runs by kind and final status",
		},
		[]string{"kind", "status"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(FeedBytesTotal, FeedRowsTotal, ProductsInsertedTotal, RunsTotal)
	})
}

// Start serves /metrics on its own port in the background.
func Start(port string) {
	Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, mux)
}
