// Package server exposes a plover DB over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/plover"
	"github.com/hupe1980/plover/auth"
	"github.com/hupe1980/plover/config"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 16 << 20

// Options configures a Server.
type Options struct {
	// Auth guards /rebuild. Defaults to auth.Deny.
	Auth auth.Authenticator
	// Metrics instruments requests; nil disables HTTP metrics.
	Metrics *Metrics
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer     prometheus.Gatherer
	Logger       *plover.Logger
	MaxBodyBytes int64
	// Version is reported by /meta.
	Version string
}

// Server routes HTTP requests to a DB.
type Server struct {
	db      *plover.DB
	opts    Options
	router  *gin.Engine
	started time.Time

	// base outlives requests; background rebuilds run under it.
	base       context.Context
	cancel     context.CancelFunc
	rebuilding atomic.Bool
	wg         sync.WaitGroup
}

// New creates a Server for db.
func New(db *plover.DB, opts Options) *Server {
	if opts.Auth == nil {
		opts.Auth = auth.Deny{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = plover.NoopLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		db:      db,
		opts:    opts,
		started: time.Now(),
	}
	s.base, s.cancel = context.WithCancel(context.Background())

	r := gin.New()
	r.Use(gin.Recovery(), requestID(opts.Logger.WithComponent("http")), accessLog(opts.Metrics))

	r.POST("/query", s.handleQuery)
	r.POST("/get_edges", s.handleGetEdges)
	r.POST("/get_neighbors", s.handleGetNeighbors)
	r.GET("/healthcheck", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.GET("/meta", s.handleMeta)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	r.POST("/rebuild", s.requireKey, s.handleRebuild)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on cfg.Addr until ctx is canceled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels background rebuilds and waits for them to return.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}
