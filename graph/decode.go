package graph

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/plover/codec"
)

// Format is the record layout of a dump file.
type Format int

const (
	// FormatJSON is a single document with `nodes` and `edges` arrays.
	FormatJSON Format = iota
	// FormatJSONL holds one record object per line.
	FormatJSONL
	// FormatTSV holds a header row followed by one record per row.
	FormatTSV
)

func (f Format) String() string {
	switch f {
	case FormatJSONL:
		return "jsonl"
	case FormatTSV:
		return "tsv"
	default:
		return "json"
	}
}

// Kind tells the loader what a record-per-line input contains.
type Kind int

const (
	// KindDocument inputs carry both collections (FormatJSON only).
	KindDocument Kind = iota
	KindNodes
	KindEdges
)

// DetectFormat derives format and compression from a file name such as
// "edges.jsonl.gz".
func DetectFormat(name string) (Format, Compression, error) {
	c, base := detectCompression(name)
	switch {
	case strings.HasSuffix(base, ".jsonl"):
		return FormatJSONL, c, nil
	case strings.HasSuffix(base, ".tsv"):
		return FormatTSV, c, nil
	case strings.HasSuffix(base, ".json"):
		return FormatJSON, c, nil
	}
	return 0, c, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Input is one dump file.
type Input struct {
	// Name is used for format detection and error messages.
	Name   string
	Kind   Kind
	Reader io.Reader
}

// Load reads every input into a single Graph.
func Load(ctx context.Context, opts Options, c codec.Codec, inputs ...Input) (*Graph, error) {
	if c == nil {
		c = codec.Default
	}
	b := NewBuilder(opts)
	for _, in := range inputs {
		if err := b.Read(ctx, c, in); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// Read decodes one input into the builder.
func (b *Builder) Read(ctx context.Context, c codec.Codec, in Input) error {
	format, comp, err := DetectFormat(in.Name)
	if err != nil {
		return err
	}
	if format != FormatJSON && in.Kind == KindDocument {
		return fmt.Errorf("graph: %s input %s needs an explicit kind", format, in.Name)
	}

	r, release, err := decompress(in.Reader, comp)
	if err != nil {
		return &DataError{Input: in.Name, Reason: "cannot open " + comp.String() + " stream", cause: err}
	}
	defer release()

	b.opts.Logger.Info("reading dump", "input", in.Name, "format", format.String(), "compression", comp.String())

	switch format {
	case FormatJSONL:
		err = b.readJSONL(ctx, c, in, r)
	case FormatTSV:
		err = b.readTSV(ctx, in, r)
	default:
		err = b.readDocument(c, in, r)
	}
	return err
}

func (b *Builder) add(kind Kind, rec map[string]any) error {
	if kind == KindEdges {
		return b.AddEdge(rec)
	}
	return b.AddNode(rec)
}

func annotate(err error, input string, line int) error {
	var de *DataError
	if errors.As(err, &de) && de.Input == "" {
		de.Input = input
		de.Line = line
	}
	return err
}

type document struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

func (b *Builder) readDocument(c codec.Codec, in Input, r io.Reader) error {
	var doc document
	if err := codec.NewDecoder(c, r).Decode(&doc); err != nil {
		return &DataError{Input: in.Name, Reason: "invalid JSON document", cause: err}
	}
	for i, rec := range doc.Nodes {
		if err := b.AddNode(rec); err != nil {
			return annotate(err, in.Name+"#nodes", i+1)
		}
	}
	for i, rec := range doc.Edges {
		if err := b.AddEdge(rec); err != nil {
			return annotate(err, in.Name+"#edges", i+1)
		}
	}
	return nil
}

func (b *Builder) readJSONL(ctx context.Context, c codec.Codec, in Input, r io.Reader) error {
	br := bufio.NewReaderSize(r, 1<<20)
	for line := 1; ; line++ {
		raw, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
			if line%progressEvery == 0 {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
			}
			var rec map[string]any
			if uerr := c.Unmarshal(trimmed, &rec); uerr != nil || rec == nil {
				return &DataError{Input: in.Name, Line: line, Reason: "expected JSON object", cause: uerr}
			}
			if aerr := b.add(in.Kind, rec); aerr != nil {
				return annotate(aerr, in.Name, line)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (b *Builder) readTSV(ctx context.Context, in Input, r io.Reader) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &DataError{Input: in.Name, Reason: "file is empty"}
	}
	if err != nil {
		return &DataError{Input: in.Name, Line: 1, Reason: "unreadable header", cause: err}
	}
	cols := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := seen[h]; dup {
			return &DataError{Input: in.Name, Line: 1, Reason: "duplicate column " + h}
		}
		seen[h] = struct{}{}
		cols[i] = h
	}

	arrays := make(map[string]struct{}, len(b.opts.ArrayProperties))
	for _, p := range b.opts.ArrayProperties {
		arrays[p] = struct{}{}
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &DataError{Input: in.Name, Line: line, Reason: "unreadable row", cause: err}
		}
		if blankRow(row) {
			continue
		}
		if len(row) != len(cols) {
			return &DataError{Input: in.Name, Line: line,
				Reason: fmt.Sprintf("column count mismatch: expected %d fields, got %d", len(cols), len(row))}
		}
		if line%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		rec := make(map[string]any, len(cols))
		for i, col := range cols {
			rec[col] = columnValue(row[i], col, arrays, b.opts.ArrayDelimiter)
		}
		if err := b.add(in.Kind, rec); err != nil {
			return annotate(err, in.Name, line)
		}
	}
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// textColumns are never coerced: an id such as "1234" stays a string.
// Array columns among them keep every element as text.
var textColumns = map[string]struct{}{
	PropID: {}, PropName: {}, PropSubject: {}, PropObject: {}, PropPredicate: {},
	PropCategory: {}, PropCategories: {}, PropPrimaryKnowledgeSource: {},
	PropEquivalentIdentifiers: {}, PropEquivalentCuries: {},
}

func columnValue(raw, col string, arrays map[string]struct{}, delim string) any {
	_, text := textColumns[col]
	if _, ok := arrays[col]; ok {
		if raw == "" {
			return []any{}
		}
		parts := strings.Split(raw, delim)
		out := make([]any, len(parts))
		for i, p := range parts {
			if text {
				out[i] = p
			} else {
				out[i] = scalarValue(p)
			}
		}
		return out
	}
	if text {
		return raw
	}
	return scalarValue(raw)
}

// scalarValue coerces TSV cells: integers, floats, booleans and null words.
func scalarValue(s string) any {
	if s == "" {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && s[0] != '+' && s[0] != '-' {
		return i
	}
	if isDecimal(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "t", "true":
		return true
	case "f", "false":
		return false
	case "none", "null":
		return nil
	}
	return s
}

// isDecimal accepts digits with dots, e.g. "0.75"; signs and exponents stay strings.
func isDecimal(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}
