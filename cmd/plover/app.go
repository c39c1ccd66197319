package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hupe1980/plover"
	"github.com/hupe1980/plover/auth"
	"github.com/hupe1980/plover/auth/dynamo"
	"github.com/hupe1980/plover/blobstore"
	"github.com/hupe1980/plover/blobstore/minio"
	"github.com/hupe1980/plover/blobstore/s3"
	"github.com/hupe1980/plover/codec"
	"github.com/hupe1980/plover/config"
	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/resource"
	"github.com/hupe1980/plover/subclass"
)

// app is a loaded configuration with the pieces derived from it.
type app struct {
	cfg    *config.Config
	logger *plover.Logger
	store  blobstore.BlobStore
}

func loadApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := config.LoadFromFile(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", flags.configPath, err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg.Graph.Store)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func newLogger(cfg config.LogConfig) (*plover.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if cfg.Format == "json" {
		return plover.NewJSONLogger(level), nil
	}
	return plover.NewTextLogger(level), nil
}

func newStore(ctx context.Context, cfg config.StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Kind {
	case config.StoreS3:
		var opts []s3.Option
		if cfg.Prefix != "" {
			opts = append(opts, s3.WithPrefix(cfg.Prefix))
		}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		return s3.New(ctx, cfg.Bucket, opts...)
	case config.StoreMinIO:
		client, err := minio.Dial(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Secure)
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return blobstore.NewLocalStore(cfg.Root), nil
	}
}

// localPaths resolves the dump files of a local store on disk.
func (a *app) localPaths() []string {
	paths := make([]string, 0, len(a.cfg.Graph.Files))
	for _, f := range a.cfg.Graph.Files {
		paths = append(paths, filepath.Join(a.cfg.Graph.Store.Root, f))
	}
	return paths
}

func (a *app) fetcher() ontology.Fetcher {
	switch {
	case a.cfg.Ontology.URL != "":
		return &ontology.HTTPFetcher{URL: a.cfg.Ontology.URL}
	case a.cfg.Ontology.File != "":
		return &ontology.BlobFetcher{Store: a.store, Name: a.cfg.Ontology.File}
	default:
		return nil
	}
}

func (a *app) options() ([]plover.Option, error) {
	c, ok := codec.ByName(a.cfg.Graph.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", a.cfg.Graph.Codec)
	}

	opts := []plover.Option{
		plover.WithLogger(a.logger),
		plover.WithCodec(c),
		plover.WithGraphOptions(graph.Options{
			TestMode:       a.cfg.Graph.TestMode,
			KeepProperties: a.cfg.Graph.KeepProperties,
			ArrayDelimiter: a.cfg.Graph.ArrayDelimiter,
		}),
		plover.WithSubclassOptions(subclass.Options{
			Sources:          a.cfg.Subclass.Sources,
			MaxDescendants:   a.cfg.Subclass.MaxDescendants,
			ExcludedPrefixes: a.cfg.Subclass.ExcludedPrefixes,
			MaxDepth:         a.cfg.Subclass.MaxDepth,
		}),
		plover.WithOntology(a.fetcher(), a.cfg.Ontology.Timeout),
		plover.WithEdgeCutoff(a.cfg.Query.EdgeCutoff),
		plover.WithResourceController(resource.NewController(resource.Config{
			MaxInFlight:        a.cfg.Limits.MaxInFlight,
			MaxQueued:          a.cfg.Limits.MaxQueued,
			QueriesPerSec:      a.cfg.Limits.QueriesPerSec,
			IOLimitBytesPerSec: a.cfg.Limits.IOLimitBytesPerSec,
		})),
	}
	if a.cfg.Graph.Report != "" {
		opts = append(opts, plover.WithReport(a.store, a.cfg.Graph.Report))
	}
	return opts, nil
}

// open builds the first snapshot.
func (a *app) open(ctx context.Context, extra ...plover.Option) (*plover.DB, error) {
	sources, err := plover.NewSources(a.store, a.cfg.Graph.Files...)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return plover.Open(ctx, sources, append(opts, extra...)...)
}

func (a *app) authenticator(ctx context.Context) (auth.Authenticator, error) {
	cfg := a.cfg.Auth
	if cfg.DynamoDBTable != "" {
		return dynamo.Dial(ctx, cfg.DynamoDBTable, cfg.Region)
	}

	keys := cfg.APIKeys
	if cfg.APIKeysFile != "" {
		fileKeys, err := auth.LoadKeysFile(cfg.APIKeysFile)
		if err != nil {
			return nil, err
		}
		keys = append(keys, fileKeys...)
	}
	if len(keys) == 0 {
		a.logger.Warn("no API keys configured, /rebuild is disabled")
		return auth.Deny{}, nil
	}
	return auth.NewStaticKeys(keys...), nil
}
