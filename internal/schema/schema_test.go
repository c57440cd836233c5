package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
	"version": "1.0",
	"width": 80, "height": 60, "units": "mm",
	"origin": "bottom-left", "y_direction": "up", "dpi": 203,
	"document": {"source": "demo_label.xml", "batch": 7},
	"commands": [
		{"name": "Setup", "args": {"name": "TEST_LABEL"}},
		{"name": "SetFont", "args": {"name": "Swiss 721", "size": 8}},
		{"name": "MoveTo", "args": {"x": 10, "y": 50}},
		{"name": "DrawText", "args": {"text": "Hello"}},
		{"name": "DrawBarcode", "args": {"value": "0123", "type": "CODE128", "width": 2, "ratio": 2, "height": 40, "size": 100}},
		{"name": "PrintFeed", "args": {}}
	]
}`

func TestValidateConformantPayload(t *testing.T) {
	require.NoError(t, Validate([]byte(validPayload)))
}

func TestValidateRejectsUnknownCommandName(t *testing.T) {
	payload := `{
		"version": "1.0", "width": 80, "height": 60, "units": "mm",
		"origin": "bottom-left", "y_direction": "up",
		"commands": [{"name": "Frobnicate", "args": {}}]
	}`

	err := Validate([]byte(payload))
	require.Error(t, err)

	var ve *ViolationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Violations)
}

func TestValidateRejectsMissingArgument(t *testing.T) {
	payload := `{
		"version": "1.0", "width": 80, "height": 60, "units": "mm",
		"origin": "bottom-left", "y_direction": "up",
		"commands": [{"name": "SetFont", "args": {"name": "Swiss 721"}}]
	}`

	err := Validate([]byte(payload))
	require.Error(t, err)
}

func TestValidateRejectsNegativeWidth(t *testing.T) {
	payload := `{
		"version": "1.0", "width": -1, "height": 60, "units": "mm",
		"origin": "bottom-left", "y_direction": "up",
		"commands": []
	}`

	err := Validate([]byte(payload))
	require.Error(t, err)
}

func TestValidateRejectsBadOrigin(t *testing.T) {
	payload := `{
		"version": "1.0", "width": 80, "height": 60, "units": "mm",
		"origin": "center", "y_direction": "up",
		"commands": []
	}`

	err := Validate([]byte(payload))
	require.Error(t, err)
}

func TestValidateRejectsInvalidJSON(t *testing.T) {
	err := Validate([]byte(`{nope`))
	require.Error(t, err)

	var ve *ViolationError
	require.ErrorAs(t, err, &ve)
}
