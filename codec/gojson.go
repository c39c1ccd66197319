package codec

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// GoJSON is backed by github.com/goccy/go-json. It is the default for dumps,
// which are dominated by small heterogeneous property maps.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (GoJSON) Name() string { return "go-json" }

// NewDecoder implements Streamer.
func (GoJSON) NewDecoder(r io.Reader) Decoder { return gojson.NewDecoder(r) }
