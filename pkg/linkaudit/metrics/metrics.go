package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default buckets
var (
	DefaultBuildBuckets   = []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultRequestBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
)

// Collectors groups the audit metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	registry *prometheus.Registry

	MatrixBuildDuration prometheus.Histogram
	PagesLoaded         prometheus.Gauge
	EdgesLoaded         prometheus.Gauge
	RelationCache       *prometheus.CounterVec
	OpportunitiesFound  prometheus.Histogram
	FilterErrors        prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
	RequestsTotal       *prometheus.CounterVec
	RunsSaved           *prometheus.CounterVec
}

// New creates the collectors on a private registry that also exposes the
// Go runtime and process collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		MatrixBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkaudit_matrix_build_duration_seconds",
			Help:    "Time spent computing the similarity matrix",
			Buckets: DefaultBuildBuckets,
		}),
		PagesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkaudit_pages_loaded",
			Help: "Pages in the current session",
		}),
		EdgesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkaudit_edges_loaded",
			Help: "Link rows in the current session",
		}),
		RelationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkaudit_relation_cache_total",
			Help: "Relation cache lookups by result",
		}, []string{"result"}),
		OpportunitiesFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkaudit_opportunities_found",
			Help:    "Opportunities returned per query",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		FilterErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkaudit_filter_errors_total",
			Help: "Invalid URL filter patterns ignored",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkaudit_http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: DefaultRequestBuckets,
		}, []string{"route"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkaudit_http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"route", "code"}),
		RunsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkaudit_runs_saved_total",
			Help: "Run snapshots written by store backend",
		}, []string{"backend"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.MatrixBuildDuration,
		c.PagesLoaded,
		c.EdgesLoaded,
		c.RelationCache,
		c.OpportunitiesFound,
		c.FilterErrors,
		c.RequestDuration,
		c.RequestsTotal,
		c.RunsSaved,
	)
	return c
}

// Registry returns the registry holding the collectors.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collectors) ObserveBuild(d time.Duration, pages, edges int) {
	if c == nil {
		return
	}
	c.MatrixBuildDuration.Observe(d.Seconds())
	c.PagesLoaded.Set(float64(pages))
	c.EdgesLoaded.Set(float64(edges))
}

func (c *Collectors) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.RelationCache.WithLabelValues(result).Inc()
}

func (c *Collectors) ObserveOpportunities(n int) {
	if c == nil {
		return
	}
	c.OpportunitiesFound.Observe(float64(n))
}

func (c *Collectors) FilterError() {
	if c == nil {
		return
	}
	c.FilterErrors.Inc()
}

// ObserveRequest records one API call.
func (c *Collectors) ObserveRequest(route, code string, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
	c.RequestsTotal.WithLabelValues(route, code).Inc()
}

func (c *Collectors) RunSaved(backend string) {
	if c == nil {
		return
	}
	c.RunsSaved.WithLabelValues(backend).Inc()
}
