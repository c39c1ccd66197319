package plover

import (
	"sync/atomic"
	"time"
)

// Query kinds passed to MetricsCollector.
const (
	KindQuery     = "query"
	KindEdges     = "get_edges"
	KindNeighbors = "get_neighbors"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordQuery is called after each admitted query.
	// kind is one of KindQuery, KindEdges or KindNeighbors, edges is the
	// number of answer edges and err is nil if successful.
	RecordQuery(kind string, edges int, duration time.Duration, err error)

	// RecordBuild is called after each build or rebuild.
	// stats is nil when the build failed.
	RecordBuild(stats *Stats, duration time.Duration, err error)

	// RecordRejected is called when admission control sheds a query.
	RecordRejected(kind string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(*Stats, time.Duration, error)      {}
func (NoopMetricsCollector) RecordRejected(string)                         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryEdges      atomic.Int64
	QueryTotalNanos atomic.Int64
	RejectedCount   atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ string, edges int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryEdges.Add(int64(edges))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ *Stats, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordRejected implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRejected(string) {
	b.RejectedCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryEdges:    b.QueryEdges.Load(),
		QueryAvgNanos: avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		RejectedCount: b.RejectedCount.Load(),
		BuildCount:    b.BuildCount.Load(),
		BuildErrors:   b.BuildErrors.Load(),
		BuildAvgNanos: avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueryCount    int64
	QueryErrors   int64
	QueryEdges    int64
	QueryAvgNanos int64
	RejectedCount int64
	BuildCount    int64
	BuildErrors   int64
	BuildAvgNanos int64
}
