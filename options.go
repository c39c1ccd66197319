package plover

import (
	"log/slog"
	"time"

	"github.com/hupe1980/plover/blobstore"
	"github.com/hupe1980/plover/codec"
	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/resource"
	"github.com/hupe1980/plover/subclass"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	graph            graph.Options
	subclass         subclass.Options
	ontology         ontology.Fetcher
	ontologyTimeout  time.Duration
	edgeCutoff       int
	resources        *resource.Controller
	reportStore      blobstore.BlobStore
	reportName       string
}

// Option configures DB behavior.
type Option func(*options)

// WithCodec configures the codec used for JSON dumps and build reports.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithGraphOptions configures how dumps are loaded, e.g. test mode or
// additional properties to keep.
func WithGraphOptions(g graph.Options) Option {
	return func(o *options) {
		o.graph = g
	}
}

// WithSubclassOptions configures subclass reasoning limits.
func WithSubclassOptions(s subclass.Options) Option {
	return func(o *options) {
		o.subclass = s
	}
}

// WithOntology configures where the predicate hierarchy is fetched from.
// timeout bounds the fetch; zero uses ontology.DefaultTimeout.
//
// Without an ontology every predicate expands only to itself.
//
// Example:
//
//	db, _ := plover.Open(ctx, sources,
//	    plover.WithOntology(&ontology.HTTPFetcher{URL: biolinkURL}, 10*time.Second))
func WithOntology(f ontology.Fetcher, timeout time.Duration) Option {
	return func(o *options) {
		o.ontology = f
		o.ontologyTimeout = timeout
	}
}

// WithEdgeCutoff caps the number of edges in one answer.
func WithEdgeCutoff(n int) Option {
	return func(o *options) {
		o.edgeCutoff = n
	}
}

// WithResourceController configures admission control for queries and
// builds, and throttling of dump reads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithReport writes the subclass report of every successful build to name
// in store.
func WithReport(store blobstore.BlobStore, name string) Option {
	return func(o *options) {
		o.reportStore = store
		o.reportName = name
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &plover.BasicMetricsCollector{}
//	db, _ := plover.Open(ctx, sources, plover.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := plover.NewJSONLogger(slog.LevelInfo)
//	db, _ := plover.Open(ctx, sources, plover.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.graph.Logger == nil {
		o.graph.Logger = o.logger.WithComponent("graph").Logger
	}
	if o.subclass.Logger == nil {
		o.subclass.Logger = o.logger.WithComponent("subclass").Logger
	}
	return o
}
