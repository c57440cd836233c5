package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// argType describes the expected wire type of one required argument.
type argType int

const (
	argString argType = iota
	argNumber
	argInteger
)

func (t argType) String() string {
	switch t {
	case argString:
		return "string"
	case argNumber:
		return "number"
	case argInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// requiredArgs maps each operation to its fixed, mandatory argument set.
// Extra, missing, or mistyped arguments are hard decode errors.
var requiredArgs = map[Op]map[string]argType{
	OpSetup:        {"name": argString},
	OpSetFont:      {"name": argString, "size": argNumber},
	OpSetAlignment: {"align": argString},
	OpSetDirection: {"direction": argString},
	OpMoveTo:       {"x": argNumber, "y": argNumber},
	OpDrawText:     {"text": argString},
	OpDrawBarcode: {
		"value":  argString,
		"type":   argString,
		"width":  argInteger,
		"ratio":  argInteger,
		"height": argInteger,
		"size":   argInteger,
	},
	OpComment:   {"text": argString},
	OpPrintFeed: {},
}

// wireEnvelope is the untyped decode boundary. Layout fields are pointers
// so absent keys fall back to documented defaults. Unknown top-level keys
// are ignored; the schema pass is the strict gate.
type wireEnvelope struct {
	Version    string          `json:"version"`
	Width      *float64        `json:"width"`
	Height     *float64        `json:"height"`
	Units      *string         `json:"units"`
	Origin     *string         `json:"origin"`
	YDirection *string         `json:"y_direction"`
	DPI        *float64        `json:"dpi"`
	Document   map[string]any  `json:"document"`
	Commands   json.RawMessage `json:"commands"`
}

type wireCommand struct {
	Name string                     `json:"name"`
	Args map[string]json.RawMessage `json:"args"`
}

// DecodeEnvelope parses a wire payload into a typed Envelope.
//
// Every command is resolved against the fixed operation set and its
// arguments validated here, once; the resulting Commands slice needs no
// re-validation at dispatch time. Errors carry the index of the first
// offending command and the failing field.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, NewMalformedPayload(fmt.Sprintf("invalid JSON: %v", err))
	}
	if len(wire.Commands) == 0 || bytes.Equal(bytes.TrimSpace(wire.Commands), []byte("null")) {
		return nil, NewMalformedPayload("missing commands")
	}

	var rawCommands []json.RawMessage
	if err := json.Unmarshal(wire.Commands, &rawCommands); err != nil {
		return nil, NewMalformedPayload("commands must be an array")
	}

	env := &Envelope{
		Version:  wire.Version,
		Layout:   decodeLayout(wire),
		Commands: make([]Command, 0, len(rawCommands)),
		Document: wire.Document,
	}
	if env.Version == "" {
		env.Version = Version
	}

	for i, raw := range rawCommands {
		cmd, err := decodeCommand(i, raw)
		if err != nil {
			return nil, err
		}
		env.Commands = append(env.Commands, cmd)
	}
	return env, nil
}

// ResolveCommand validates a wire-shaped name/args pair against the
// fixed operation set and returns the typed command. It runs the same
// validation DecodeEnvelope applies per command; index is carried into
// any resulting Error as the command's position. A nil args map is
// treated as empty.
func ResolveCommand(index int, name string, args map[string]any) (Command, error) {
	raw, err := json.Marshal(struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	}{Name: name, Args: args})
	if err != nil {
		return nil, NewInvalidArgument(index, "args",
			fmt.Sprintf("arguments are not wire-encodable: %v", err))
	}
	return decodeCommand(index, raw)
}

func decodeLayout(wire wireEnvelope) LayoutContext {
	lc := DefaultLayout()
	if wire.Width != nil {
		lc.Width = *wire.Width
	}
	if wire.Height != nil {
		lc.Height = *wire.Height
	}
	if wire.Units != nil {
		lc.Units = *wire.Units
	}
	if wire.Origin != nil {
		lc.Origin = *wire.Origin
	}
	if wire.YDirection != nil {
		lc.YDirection = *wire.YDirection
	}
	if wire.DPI != nil {
		lc.DPI = *wire.DPI
	}
	return lc
}

func decodeCommand(index int, raw json.RawMessage) (Command, error) {
	var wc wireCommand
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, &Error{
			Code:    ErrCodeMalformedPayload,
			Message: fmt.Sprintf("command entry is not an object: %v", err),
			Index:   index,
		}
	}
	if wc.Name == "" {
		return nil, NewInvalidArgument(index, "name", "command name is required")
	}

	required, ok := requiredArgs[Op(wc.Name)]
	if !ok {
		return nil, NewUnsupportedCommand(index, wc.Name)
	}

	args := newArgReader(index, wc.Args)
	var cmd Command
	switch Op(wc.Name) {
	case OpSetup:
		cmd = Setup{Name: args.str("name")}
	case OpSetFont:
		cmd = SetFont{Name: args.str("name"), Size: args.num("size")}
	case OpSetAlignment:
		cmd = SetAlignment{Align: args.str("align")}
	case OpSetDirection:
		cmd = SetDirection{Direction: args.str("direction")}
	case OpMoveTo:
		cmd = MoveTo{X: args.num("x"), Y: args.num("y")}
	case OpDrawText:
		cmd = DrawText{Text: args.str("text")}
	case OpDrawBarcode:
		cmd = DrawBarcode{
			Value:  args.str("value"),
			Type:   args.str("type"),
			Width:  args.integer("width"),
			Ratio:  args.integer("ratio"),
			Height: args.integer("height"),
			Size:   args.integer("size"),
		}
	case OpComment:
		cmd = Comment{Text: args.str("text")}
	case OpPrintFeed:
		cmd = PrintFeed{}
	}
	if args.err != nil {
		return nil, args.err
	}
	if err := args.checkUnknown(required); err != nil {
		return nil, err
	}
	return cmd, nil
}

// argReader extracts typed arguments from a wire args map, recording the
// first failure. Extraction continues after a failure only syntactically;
// the recorded error always wins.
type argReader struct {
	index int
	args  map[string]json.RawMessage
	err   error
}

func newArgReader(index int, args map[string]json.RawMessage) *argReader {
	return &argReader{index: index, args: args}
}

func (r *argReader) raw(name string, want argType) (json.RawMessage, bool) {
	if r.err != nil {
		return nil, false
	}
	raw, ok := r.args[name]
	if !ok {
		r.err = NewInvalidArgument(r.index, "args."+name,
			fmt.Sprintf("missing required argument (%s)", want))
		return nil, false
	}
	return raw, true
}

func (r *argReader) fail(name string, want argType, raw json.RawMessage) {
	r.err = NewInvalidArgument(r.index, "args."+name,
		fmt.Sprintf("expected %s, got %s", want, jsonTypeName(raw)))
}

func (r *argReader) str(name string) string {
	raw, ok := r.raw(name, argString)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.fail(name, argString, raw)
		return ""
	}
	return s
}

func (r *argReader) num(name string) float64 {
	raw, ok := r.raw(name, argNumber)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		r.fail(name, argNumber, raw)
		return 0
	}
	return f
}

// integer accepts any JSON number with a zero fractional part, so both
// 2 and 2.0 decode to int64(2) while 2.5 is rejected.
func (r *argReader) integer(name string) int64 {
	raw, ok := r.raw(name, argInteger)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		r.fail(name, argInteger, raw)
		return 0
	}
	if f != math.Trunc(f) {
		r.err = NewInvalidArgument(r.index, "args."+name,
			fmt.Sprintf("expected integer, got fractional number %v", f))
		return 0
	}
	return int64(f)
}

// checkUnknown rejects arguments outside the operation's fixed set.
func (r *argReader) checkUnknown(required map[string]argType) error {
	if r.err != nil {
		return r.err
	}
	var extras []string
	for name := range r.args {
		if _, ok := required[name]; !ok {
			extras = append(extras, name)
		}
	}
	if len(extras) == 0 {
		return nil
	}
	sort.Strings(extras)
	return NewInvalidArgument(r.index, "args."+extras[0],
		fmt.Sprintf("unexpected argument(s): %s", strings.Join(extras, ", ")))
}

func jsonTypeName(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "empty"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
