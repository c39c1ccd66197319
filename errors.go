package plover

import (
	"errors"
	"fmt"

	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/query"
	"github.com/hupe1980/plover/resource"
)

var (
	// ErrNotReady is returned by queries before the first build completes.
	ErrNotReady = errors.New("plover: index not built")

	// ErrUnavailable is returned when a query is shed by admission control.
	ErrUnavailable = errors.New("plover: service unavailable")

	// ErrInvalidQuery is returned for queries that cannot be answered as posed.
	ErrInvalidQuery = errors.New("plover: invalid query")

	// ErrTooManyEdges is returned when an answer would exceed the edge cutoff.
	ErrTooManyEdges = errors.New("plover: too many answer edges")

	// ErrMalformedGraph is returned when a dump cannot be loaded.
	ErrMalformedGraph = errors.New("plover: malformed graph")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("plover: closed")

	// ErrNoSources is returned when a DB is built without dump sources.
	ErrNoSources = errors.New("plover: no dump sources configured")
)

// BuildError wraps a failed build or rebuild.
//
// The underlying error can be accessed via errors.Unwrap.
type BuildError struct {
	// Generation is the generation that failed to build.
	Generation uint64
	cause      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("plover: build %d failed: %v", e.Generation, e.cause)
}

func (e *BuildError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, query.ErrInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	case errors.Is(err, query.ErrTooManyEdges):
		return fmt.Errorf("%w: %w", ErrTooManyEdges, err)
	case errors.Is(err, resource.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.Is(err, graph.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedGraph, err)
	}

	return err
}
