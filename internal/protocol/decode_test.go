package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeTypedCommands(t *testing.T) {
	payload := `{
		"version": "1.0",
		"width": 80, "height": 60, "units": "mm",
		"origin": "bottom-left", "y_direction": "up", "dpi": 203,
		"document": {"source": "demo_label.xml"},
		"commands": [
			{"name": "Setup", "args": {"name": "TEST_LABEL"}},
			{"name": "SetFont", "args": {"name": "Swiss 721", "size": 8}},
			{"name": "MoveTo", "args": {"x": 100, "y": 50}},
			{"name": "DrawText", "args": {"text": "Hello JSON World"}},
			{"name": "DrawBarcode", "args": {"value": "0123", "type": "CODE128", "width": 2, "ratio": 2, "height": 40, "size": 100}},
			{"name": "Comment", "args": {"text": "end of label"}},
			{"name": "PrintFeed", "args": {}}
		]
	}`

	env, err := DecodeEnvelope([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "1.0", env.Version)
	assert.Equal(t, LayoutContext{
		Width: 80, Height: 60, Units: "mm",
		Origin: "bottom-left", YDirection: "up", DPI: 203,
	}, env.Layout)
	assert.Equal(t, map[string]any{"source": "demo_label.xml"}, env.Document)

	require.Len(t, env.Commands, 7)
	assert.Equal(t, Setup{Name: "TEST_LABEL"}, env.Commands[0])
	assert.Equal(t, SetFont{Name: "Swiss 721", Size: 8}, env.Commands[1])
	assert.Equal(t, MoveTo{X: 100, Y: 50}, env.Commands[2])
	assert.Equal(t, DrawText{Text: "Hello JSON World"}, env.Commands[3])
	assert.Equal(t, DrawBarcode{Value: "0123", Type: "CODE128", Width: 2, Ratio: 2, Height: 40, Size: 100}, env.Commands[4])
	assert.Equal(t, Comment{Text: "end of label"}, env.Commands[5])
	assert.Equal(t, PrintFeed{}, env.Commands[6])
}

func TestDecodeEnvelopeLayoutDefaults(t *testing.T) {
	empty, err := DecodeEnvelope([]byte(`{"commands": []}`))
	require.NoError(t, err) // an empty sequence is valid, only a missing one is not
	assert.Empty(t, empty.Commands)

	env, err := DecodeEnvelope([]byte(`{"commands": [{"name": "PrintFeed", "args": {}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "mm", env.Layout.Units)
	assert.Equal(t, "bottom-left", env.Layout.Origin)
	assert.Equal(t, "up", env.Layout.YDirection)
	assert.Zero(t, env.Layout.DPI)
	assert.Equal(t, Version, env.Version)
}

func TestDecodeEnvelopeMalformedJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, IsMalformedPayload(err))
}

func TestDecodeEnvelopeMissingCommands(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"version": "1.0", "width": 80}`))
	require.Error(t, err)
	assert.True(t, IsMalformedPayload(err))
}

func TestDecodeEnvelopeCommandsNotArray(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"commands": {"name": "PrintFeed"}}`))
	require.Error(t, err)
	assert.True(t, IsMalformedPayload(err))
}

func TestDecodeEnvelopeUnsupportedCommand(t *testing.T) {
	payload := `{"commands": [
		{"name": "MoveTo", "args": {"x": 1, "y": 2}},
		{"name": "Frobnicate", "args": {}}
	]}`

	_, err := DecodeEnvelope([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsUnsupportedCommand(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Contains(t, pe.Message, "Frobnicate")
}

func TestDecodeEnvelopeMissingArgument(t *testing.T) {
	payload := `{"commands": [{"name": "SetFont", "args": {"name": "Swiss 721"}}]}`

	_, err := DecodeEnvelope([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Index)
	assert.Equal(t, "args.size", pe.Field)
}

func TestDecodeEnvelopeWrongTypedArgument(t *testing.T) {
	payload := `{"commands": [{"name": "MoveTo", "args": {"x": "ten", "y": 2}}]}`

	_, err := DecodeEnvelope([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "args.x", pe.Field)
	assert.Contains(t, pe.Message, "expected number")
}

func TestDecodeEnvelopeExtraArgument(t *testing.T) {
	payload := `{"commands": [{"name": "DrawText", "args": {"text": "hi", "color": "red"}}]}`

	_, err := DecodeEnvelope([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "args.color", pe.Field)
}

func TestDecodeEnvelopeIntegerArguments(t *testing.T) {
	// 40.0 is an integral number and decodes; 2.5 is rejected.
	ok := `{"commands": [{"name": "DrawBarcode", "args":
		{"value": "v", "type": "CODE39", "width": 2, "ratio": 3, "height": 40.0, "size": 100}}]}`
	env, err := DecodeEnvelope([]byte(ok))
	require.NoError(t, err)
	assert.Equal(t, int64(40), env.Commands[0].(DrawBarcode).Height)

	bad := `{"commands": [{"name": "DrawBarcode", "args":
		{"value": "v", "type": "CODE39", "width": 2.5, "ratio": 3, "height": 40, "size": 100}}]}`
	_, err = DecodeEnvelope([]byte(bad))
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "args.width", pe.Field)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env := &Envelope{
		Version: Version,
		Layout: LayoutContext{
			Width: 80, Height: 60, Units: "mm",
			Origin: "bottom-left", YDirection: "up", DPI: 203,
		},
		Commands: []Command{
			Setup{Name: "TEST_LABEL"},
			SetFont{Name: "Swiss 721", Size: 8},
			MoveTo{X: 10, Y: 50},
			DrawText{Text: `he said "hi"`},
			PrintFeed{},
		},
		Document: map[string]any{"source": "roundtrip"},
	}

	data, err := EncodeEnvelope(env, false)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.Version, decoded.Version)
	assert.Equal(t, env.Layout, decoded.Layout)
	assert.Equal(t, env.Commands, decoded.Commands)
	assert.Equal(t, env.Document, decoded.Document)
}

func TestErrorMessageIncludesIndexAndField(t *testing.T) {
	err := NewInvalidArgument(3, "args.size", "missing required argument (number)")
	assert.Equal(t, "INVALID_ARGUMENT: commands[3].args.size: missing required argument (number)", err.Error())
}
