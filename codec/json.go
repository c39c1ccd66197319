package codec

import (
	"encoding/json"
	"io"
)

// JSON uses encoding/json. Its decode errors carry byte offsets, which
// helps when tracking down a malformed record in a dump.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }

// NewDecoder implements Streamer.
func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
