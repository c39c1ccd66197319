package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/plover"
)

const namespace = "plover"

// Metrics is a Prometheus implementation of plover.MetricsCollector that
// also instruments HTTP requests.
type Metrics struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	answerEdges   prometheus.Histogram
	rejected      *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	generation    prometheus.Gauge
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
	requests      *prometheus.CounterVec
	reqDuration   *prometheus.HistogramVec
}

var _ plover.MetricsCollector = (*Metrics)(nil)

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries answered, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent answering a query.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"kind"}),
		answerEdges: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_edges",
			Help:      "Edges per answer.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_rejected_total",
			Help:      "Queries shed by admission control.",
		}, []string{"kind"}),
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Index builds, by outcome.",
		}, []string{"outcome"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building an index snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 3, 10),
		}),
		generation: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_generation",
			Help:      "Generation of the snapshot being served.",
		}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the snapshot being served.",
		}),
		graphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the snapshot being served.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status.",
		}, []string{"method", "route", "status"}),
		reqDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordQuery implements plover.MetricsCollector.
func (m *Metrics) RecordQuery(kind string, edges int, duration time.Duration, err error) {
	m.queries.WithLabelValues(kind, outcome(err)).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil && kind == plover.KindQuery {
		m.answerEdges.Observe(float64(edges))
	}
}

// RecordBuild implements plover.MetricsCollector.
func (m *Metrics) RecordBuild(stats *plover.Stats, duration time.Duration, err error) {
	m.builds.WithLabelValues(outcome(err)).Inc()
	m.buildDuration.Observe(duration.Seconds())
	if stats != nil {
		m.generation.Set(float64(stats.Generation))
		m.graphNodes.Set(float64(stats.Graph.Nodes))
		m.graphEdges.Set(float64(stats.Graph.Edges))
	}
}

// RecordRejected implements plover.MetricsCollector.
func (m *Metrics) RecordRejected(kind string) {
	m.rejected.WithLabelValues(kind).Inc()
}
