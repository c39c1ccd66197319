package ontology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hupe1980/plover/blobstore"
)

// DefaultTimeout bounds a hierarchy fetch.
const DefaultTimeout = 10 * time.Second

// maxDocumentSize caps the hierarchy document read from a source.
const maxDocumentSize = 64 << 20

// ErrFetch is returned when a hierarchy source answers with an error.
var ErrFetch = errors.New("ontology: fetch failed")

// Fetcher retrieves the raw hierarchy document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// HTTPFetcher downloads the document from URL.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, f.URL, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

// BlobFetcher reads the document from a blob store.
type BlobFetcher struct {
	Store blobstore.BlobStore
	Name  string
}

// Fetch implements Fetcher.
func (f *BlobFetcher) Fetch(ctx context.Context) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, f.Store, f.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.Name, err)
	}
	return data, nil
}

// Load fetches, parses and closes a hierarchy. Errors are returned as is.
func Load(ctx context.Context, f Fetcher, timeout time.Duration) (*Expansion, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, err
	}
	classes, err := ParseClasses(data)
	if err != nil {
		return nil, err
	}
	e := Close(NewHierarchy(defs))
	if len(classes) > 0 {
		e.WithClasses(NewHierarchy(classes))
	}
	return e, nil
}

// Build is Load with the identity fallback: any failure is logged as a
// warning and the identity expansion is returned. A nil fetcher yields the
// identity expansion without a warning.
func Build(ctx context.Context, f Fetcher, timeout time.Duration, logger *slog.Logger) *Expansion {
	if logger == nil {
		logger = slog.Default()
	}
	if f == nil {
		return Identity("no hierarchy source configured")
	}

	start := time.Now()
	e, err := Load(ctx, f, timeout)
	if err != nil {
		logger.Warn("predicate hierarchy unavailable, using identity expansion", "error", err)
		return Identity(err.Error())
	}
	logger.Info("predicate hierarchy loaded", "predicates", e.Len(), "duration", time.Since(start))
	return e
}
