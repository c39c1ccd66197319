package plover

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/index"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/query"
	"github.com/hupe1980/plover/resource"
	"github.com/hupe1980/plover/subclass"
)

// Stats describes the snapshot currently served.
type Stats struct {
	Generation       uint64        `json:"generation"`
	BuiltAt          time.Time     `json:"built_at"`
	BuildDuration    time.Duration `json:"build_duration_ns"`
	Graph            graph.Stats   `json:"graph"`
	Index            index.Stats   `json:"index"`
	Predicates       int           `json:"ontology_predicates"`
	OntologyDegraded string        `json:"ontology_degraded,omitempty"`
	SubclassParents  int           `json:"subclass_parents"`
}

// snapshot is everything one build produced. It is never mutated.
type snapshot struct {
	engine *query.Engine
	report *subclass.Report
	stats  Stats
}

// DB serves queries from the most recent successful build.
//
// Queries read an immutable snapshot without locks. Rebuild prepares a new
// snapshot off to the side and swaps it in atomically; queries already
// running finish on the snapshot they started with.
type DB struct {
	opts    options
	sources []Source

	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	closed     atomic.Bool
}

// New creates a DB that has not been built yet. Queries return ErrNotReady
// until Rebuild succeeds.
func New(sources []Source, optFns ...Option) (*DB, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	return &DB{
		opts:    applyOptions(optFns),
		sources: loadOrder(sources),
	}, nil
}

// Open creates a DB and builds it.
func Open(ctx context.Context, sources []Source, optFns ...Option) (*DB, error) {
	db, err := New(sources, optFns...)
	if err != nil {
		return nil, err
	}
	if err := db.Rebuild(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Rebuild loads the sources again and swaps in the result. On failure the
// current snapshot, if any, keeps serving.
func (db *DB) Rebuild(ctx context.Context) error {
	if db.closed.Load() {
		return ErrClosed
	}
	rc := db.opts.resources
	if err := rc.AcquireBuild(ctx); err != nil {
		return err
	}
	defer rc.ReleaseBuild()

	gen := db.generation.Add(1)
	log := db.opts.logger.WithGeneration(gen)
	start := time.Now()

	snap, err := db.build(ctx, gen, log)
	duration := time.Since(start)
	if err != nil {
		err = &BuildError{Generation: gen, cause: translateError(err)}
		log.LogBuild(ctx, nil, duration, err)
		db.opts.metricsCollector.RecordBuild(nil, duration, err)
		if prev := db.current.Load(); prev != nil {
			log.LogRebuild(ctx, prev.stats.Generation, gen, err)
		}
		return err
	}
	snap.stats.BuildDuration = duration
	log.LogBuild(ctx, &snap.stats, duration, nil)
	db.opts.metricsCollector.RecordBuild(&snap.stats, duration, nil)

	for {
		prev := db.current.Load()
		if prev != nil && prev.stats.Generation > gen {
			// A later build finished first.
			return nil
		}
		if db.current.CompareAndSwap(prev, snap) {
			if prev != nil {
				log.LogRebuild(ctx, prev.stats.Generation, gen, nil)
			}
			break
		}
	}
	if db.closed.Load() {
		db.current.Store(nil)
		return ErrClosed
	}
	return nil
}

func (db *DB) build(ctx context.Context, gen uint64, log *Logger) (*snapshot, error) {
	var (
		kg        *graph.Graph
		expansion *ontology.Expansion
	)

	// The hierarchy fetch shares nothing with the dump parse.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expansion = ontology.Build(gctx, db.opts.ontology, db.opts.ontologyTimeout,
			log.WithComponent("ontology").Logger)
		return nil
	})
	g.Go(func() error {
		var err error
		kg, err = db.load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.LogOntology(ctx, expansion.Len(), expansion.Degraded())

	x := index.Build(kg)
	sub := subclass.Build(kg, db.opts.subclass)
	en := query.NewEngine(x, expansion, sub, query.Options{
		EdgeCutoff: db.opts.edgeCutoff,
		Logger:     log.WithComponent("query").Logger,
	})

	report := sub.Report()
	if err := db.writeReport(ctx, report); err != nil {
		log.WarnContext(ctx, "cannot write subclass report", "error", err)
	}

	return &snapshot{
		engine: en,
		report: report,
		stats: Stats{
			Generation:       gen,
			BuiltAt:          time.Now(),
			Graph:            kg.Stats(),
			Index:            x.Stats(),
			Predicates:       expansion.Len(),
			OntologyDegraded: expansion.Degraded(),
			SubclassParents:  sub.Len(),
		},
	}, nil
}

func (db *DB) load(ctx context.Context) (*graph.Graph, error) {
	b := graph.NewBuilder(db.opts.graph)
	for _, s := range db.sources {
		if err := db.read(ctx, b, s); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

func (db *DB) read(ctx context.Context, b *graph.Builder, s Source) error {
	r, err := s.open(ctx, db.opts.resources)
	if err != nil {
		return err
	}
	defer r.Close()
	return b.Read(ctx, db.opts.codec, graph.Input{Name: s.Name, Kind: s.Kind, Reader: r})
}

func (db *DB) writeReport(ctx context.Context, report *subclass.Report) error {
	if db.opts.reportStore == nil {
		return nil
	}
	data, err := db.opts.codec.Marshal(report)
	if err != nil {
		return err
	}
	return db.opts.reportStore.Put(ctx, db.opts.reportName, data)
}

func (db *DB) snapshot() (*snapshot, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	s := db.current.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s, nil
}

// Ready reports whether a snapshot is being served.
func (db *DB) Ready() bool {
	_, err := db.snapshot()
	return err == nil
}

// Stats returns the stats of the current snapshot.
func (db *DB) Stats() (Stats, error) {
	s, err := db.snapshot()
	if err != nil {
		return Stats{}, err
	}
	return s.stats, nil
}

// SubclassReport returns the subclass report of the current snapshot.
func (db *DB) SubclassReport() (*subclass.Report, error) {
	s, err := db.snapshot()
	if err != nil {
		return nil, err
	}
	return s.report, nil
}

// Answer answers a query graph.
func (db *DB) Answer(ctx context.Context, g *query.Graph) (*query.Response, error) {
	var resp *query.Response
	err := db.run(ctx, KindQuery, func(en *query.Engine) (int, error) {
		var err error
		if resp, err = en.Answer(ctx, g); err != nil {
			return 0, err
		}
		return resp.NumEdges(), nil
	})
	return resp, err
}

// GetEdges returns the edges between each pair of node ids.
func (db *DB) GetEdges(ctx context.Context, pairs [][]string) (*query.EdgesResponse, error) {
	var resp *query.EdgesResponse
	err := db.run(ctx, KindEdges, func(en *query.Engine) (int, error) {
		var err error
		if resp, err = en.GetEdges(ctx, pairs); err != nil {
			return 0, err
		}
		return len(resp.KnowledgeGraph.Edges), nil
	})
	return resp, err
}

// GetNeighbors returns the neighbors of each node id, optionally restricted
// to neighbor categories and predicates.
func (db *DB) GetNeighbors(ctx context.Context, ids, categories, predicates []string) (map[string][]string, error) {
	var resp map[string][]string
	err := db.run(ctx, KindNeighbors, func(en *query.Engine) (int, error) {
		var err error
		if resp, err = en.GetNeighbors(ctx, ids, categories, predicates); err != nil {
			return 0, err
		}
		return 0, nil
	})
	return resp, err
}

func (db *DB) run(ctx context.Context, kind string, fn func(*query.Engine) (int, error)) error {
	if _, err := db.snapshot(); err != nil {
		return err
	}
	release, err := db.opts.resources.AcquireQuery(ctx)
	if err != nil {
		if errors.Is(err, resource.ErrUnavailable) {
			db.opts.metricsCollector.RecordRejected(kind)
		}
		return translateError(err)
	}
	defer release()

	s, err := db.snapshot()
	if err != nil {
		return err
	}
	start := time.Now()
	edges, err := fn(s.engine)
	err = translateError(err)
	duration := time.Since(start)
	db.opts.metricsCollector.RecordQuery(kind, edges, duration, err)
	db.opts.logger.LogQuery(ctx, kind, edges, duration, err)
	return err
}
