// Package codec selects the JSON implementation used for graph dumps,
// build reports and query documents.
package codec

import (
	"fmt"
	"io"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Decoder reads one value at a time from a stream.
type Decoder interface {
	Decode(v any) error
}

// Streamer is implemented by codecs that can decode straight from a reader.
// Large single-document dumps are decoded this way instead of being read
// into memory first.
type Streamer interface {
	NewDecoder(r io.Reader) Decoder
}

// NewDecoder returns c's streaming decoder for r. Codecs without one get a
// decoder that reads r fully on the first Decode.
func NewDecoder(c Codec, r io.Reader) Decoder {
	if c == nil {
		c = Default
	}
	if s, ok := c.(Streamer); ok {
		return s.NewDecoder(r)
	}
	return &bufferedDecoder{c: c, r: r}
}

type bufferedDecoder struct {
	c    Codec
	r    io.Reader
	done bool
}

func (d *bufferedDecoder) Decode(v any) error {
	if d.done {
		return io.EOF
	}
	d.done = true
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	return d.c.Unmarshal(data, v)
}

// ByName returns a built-in codec by its configuration name.
// The empty name selects Default.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json", "":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal panics on error. Tests and fixtures only.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s: marshal %T: %w", c.Name(), v, err))
	}
	return b
}
