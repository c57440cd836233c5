package protocol

import "encoding/json"

// wirePayload mirrors the versioned wire format: layout fields are
// flattened into the envelope rather than nested. Field order here fixes
// the serialized key order.
type wirePayload struct {
	Version    string            `json:"version"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Units      string            `json:"units"`
	Origin     string            `json:"origin"`
	YDirection string            `json:"y_direction"`
	DPI        *float64          `json:"dpi,omitempty"`
	Document   map[string]any    `json:"document,omitempty"`
	Commands   []wireCommandJSON `json:"commands"`
}

type wireCommandJSON struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// EncodeEnvelope serializes an envelope to the wire text format.
// With pretty set, the output is indented with two spaces.
func EncodeEnvelope(env *Envelope, pretty bool) ([]byte, error) {
	payload := wirePayload{
		Version:    env.Version,
		Width:      env.Layout.Width,
		Height:     env.Layout.Height,
		Units:      env.Layout.Units,
		Origin:     env.Layout.Origin,
		YDirection: env.Layout.YDirection,
		Document:   env.Document,
		Commands:   make([]wireCommandJSON, 0, len(env.Commands)),
	}
	if env.Layout.DPI > 0 {
		dpi := env.Layout.DPI
		payload.DPI = &dpi
	}
	for _, cmd := range env.Commands {
		payload.Commands = append(payload.Commands, wireCommandJSON{
			Name: string(cmd.Op()),
			Args: wireArgs(cmd),
		})
	}
	if pretty {
		return json.MarshalIndent(payload, "", "  ")
	}
	return json.Marshal(payload)
}
