package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorMessage(t *testing.T) {
	err := NewExitError(ExitFailure, "run failed")
	assert.Equal(t, "run failed", err.Error())

	wrapped := WrapExitError(ExitCommandError, "open journal", errors.New("no such file"))
	assert.Equal(t, "open journal: no such file", wrapped.Error())
	assert.Equal(t, "no such file", errors.Unwrap(wrapped).Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))))
}

func TestFormatterSuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]any{"count": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFormatterSuccessText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("done"))
	assert.Equal(t, "done\n", buf.String())
}

func TestFormatterErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("TRANSPORT_FAILURE", "dial failed", "details here"))
	assert.Contains(t, buf.String(), "Error [TRANSPORT_FAILURE]: dial failed")
	assert.Contains(t, buf.String(), "details here")
}

func TestVerboseLogRouting(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("rendered %d commands", 7)
	assert.Empty(t, out.String())
	assert.Equal(t, "rendered 7 commands\n", errOut.String())

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	errOut.Reset()
	quiet.VerboseLog("hidden")
	assert.Empty(t, errOut.String())
}
