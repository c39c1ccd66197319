package plover

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/plover/blobstore"
	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/resource"
)

// Source is one graph dump in a blob store.
type Source struct {
	Store blobstore.BlobStore
	Name  string
	Kind  graph.Kind
}

// NewSource describes name in store. A .json document carries both
// collections; a .jsonl or .tsv file holds nodes or edges depending on
// whether its base name contains "nodes" or "edges".
func NewSource(store blobstore.BlobStore, name string) (Source, error) {
	format, _, err := graph.DetectFormat(name)
	if err != nil {
		return Source{}, err
	}
	s := Source{Store: store, Name: name}
	base := strings.ToLower(path.Base(name))
	switch {
	case format == graph.FormatJSON:
		s.Kind = graph.KindDocument
	case strings.Contains(base, "nodes"):
		s.Kind = graph.KindNodes
	case strings.Contains(base, "edges"):
		s.Kind = graph.KindEdges
	default:
		return Source{}, fmt.Errorf("plover: cannot tell whether %q holds nodes or edges", name)
	}
	return s, nil
}

// NewSources is NewSource for several names in the same store.
func NewSources(store blobstore.BlobStore, names ...string) ([]Source, error) {
	out := make([]Source, 0, len(names))
	for _, n := range names {
		s, err := NewSource(store, n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// loadOrder reads documents and node files before edge files.
func loadOrder(sources []Source) []Source {
	out := slices.Clone(sources)
	slices.SortStableFunc(out, func(a, b Source) int { return int(a.Kind) - int(b.Kind) })
	return out
}

func (s Source) open(ctx context.Context, rc *resource.Controller) (io.ReadCloser, error) {
	r, _, err := blobstore.NewReader(ctx, s.Store, s.Name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name, err)
	}
	if !rc.LimitsIO() {
		return r, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{resource.NewRateLimitedReader(ctx, r, rc), r}, nil
}
