package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Upstream calls to the NWAC pages and SnowObs API (labels: endpoint, outcome).
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "nwac_upstream_requests_total", Help: "Upstream requests by endpoint and outcome"},
		[]string{"endpoint", "outcome"},
	)
	// Timeseries memo lookups (label: result = hit|miss).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "nwac_timeseries_cache_total", Help: "Timeseries cache lookups by result"},
		[]string{"result"},
	)
	FigureBuild = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nwac_figure_build_seconds",
			Help:    "Time to fetch, normalize and compose one dashboard figure",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register adds the collectors to reg. Call once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(UpstreamRequests, CacheLookups, FigureBuild)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
