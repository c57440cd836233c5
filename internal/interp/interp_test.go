package interp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/platen/internal/protocol"
)

// recordingDriver captures every dispatched operation in order. Its
// native convention matches the canonical one, so coordinates pass
// through untouched.
type recordingDriver struct {
	layout     protocol.LayoutContext
	configured int
	calls      []string
	failAt     int   // 0-based call index to fail on, -1 to never fail
	failErr    error // error returned at failAt
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{failAt: -1}
}

func (d *recordingDriver) record(call string) error {
	if d.failAt >= 0 && len(d.calls) == d.failAt {
		return d.failErr
	}
	d.calls = append(d.calls, call)
	return nil
}

func (d *recordingDriver) Configure(layout protocol.LayoutContext) error {
	d.layout = layout
	d.configured++
	return nil
}

func (d *recordingDriver) Setup(name string) error { return d.record("Setup " + name) }
func (d *recordingDriver) SetFont(name string, size float64) error {
	return d.record(fmt.Sprintf("SetFont %s %g", name, size))
}
func (d *recordingDriver) SetAlignment(align string) error { return d.record("SetAlignment " + align) }
func (d *recordingDriver) SetDirection(direction string) error {
	return d.record("SetDirection " + direction)
}
func (d *recordingDriver) MoveTo(x, y float64) error {
	return d.record(fmt.Sprintf("MoveTo %g %g", x, y))
}
func (d *recordingDriver) DrawText(text string) error { return d.record("DrawText " + text) }
func (d *recordingDriver) DrawBarcode(value, kind string, width, ratio, height, size int64) error {
	return d.record(fmt.Sprintf("DrawBarcode %s %s %d %d %d %d", value, kind, width, ratio, height, size))
}
func (d *recordingDriver) Comment(text string) error { return d.record("Comment " + text) }
func (d *recordingDriver) PrintFeed() error          { return d.record("PrintFeed") }
func (d *recordingDriver) DPI() float64              { return 203 }

// sessionDriver wraps recordingDriver with Open/Close tracking.
type sessionDriver struct {
	recordingDriver
	opens   int
	closes  int
	openErr error
}

func (d *sessionDriver) Open(ctx context.Context) error {
	if d.openErr != nil {
		return d.openErr
	}
	d.opens++
	return nil
}

func (d *sessionDriver) Close() error {
	d.closes++
	return nil
}

// flippingDriver applies the Y transform the way a top-left/down backend
// does, recording device-space coordinates.
type flippingDriver struct {
	recordingDriver
}

func (d *flippingDriver) MoveTo(x, y float64) error {
	dx, dy := d.layout.ToDeviceCoords(x, y, "top-left", "down")
	return d.record(fmt.Sprintf("MoveTo %g %g", dx, dy))
}

const moveToPayload = `{
	"width": 80, "height": 60,
	"origin": "bottom-left", "y_direction": "up",
	"commands": [{"name": "MoveTo", "args": {"x": 10, "y": 50}}]
}`

func TestRunDispatchesInOrder(t *testing.T) {
	payload := `{
		"version": "1.0", "width": 80, "height": 60, "units": "mm",
		"origin": "bottom-left", "y_direction": "up",
		"commands": [
			{"name": "Setup", "args": {"name": "SHELF"}},
			{"name": "SetFont", "args": {"name": "Swiss 721", "size": 8}},
			{"name": "SetAlignment", "args": {"align": "7"}},
			{"name": "SetDirection", "args": {"direction": "1"}},
			{"name": "MoveTo", "args": {"x": 10, "y": 50}},
			{"name": "DrawText", "args": {"text": "Hello"}},
			{"name": "DrawBarcode", "args": {"value": "0123", "type": "CODE128", "width": 2, "ratio": 2, "height": 40, "size": 100}},
			{"name": "Comment", "args": {"text": "done"}},
			{"name": "PrintFeed", "args": {}}
		]
	}`

	driver := newRecordingDriver()
	err := New(driver).Run(context.Background(), []byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 1, driver.configured)
	assert.Equal(t, []string{
		"Setup SHELF",
		"SetFont Swiss 721 8",
		"SetAlignment 7",
		"SetDirection 1",
		"MoveTo 10 50",
		"DrawText Hello",
		"DrawBarcode 0123 CODE128 2 2 40 100",
		"Comment done",
		"PrintFeed",
	}, driver.calls)
}

func TestRunConfiguresDriverWithDefaults(t *testing.T) {
	driver := newRecordingDriver()
	err := New(driver).Run(context.Background(), []byte(`{"commands": [{"name": "PrintFeed", "args": {}}]}`))
	require.NoError(t, err)

	assert.Equal(t, "mm", driver.layout.Units)
	assert.Equal(t, "bottom-left", driver.layout.Origin)
	assert.Equal(t, "up", driver.layout.YDirection)
}

func TestRunUnknownCommandDispatchesNothing(t *testing.T) {
	payload := `{"commands": [
		{"name": "Frobnicate", "args": {}},
		{"name": "PrintFeed", "args": {}}
	]}`

	driver := newRecordingDriver()
	err := New(driver).Run(context.Background(), []byte(payload))
	require.Error(t, err)
	assert.True(t, protocol.IsUnsupportedCommand(err))
	assert.Zero(t, driver.configured)
	assert.Empty(t, driver.calls)
}

func TestRunInvalidArgumentDispatchesNothing(t *testing.T) {
	// Validation is resolved at parse time, so a bad argument anywhere in
	// the sequence means the driver receives no calls at all.
	payload := `{"commands": [
		{"name": "MoveTo", "args": {"x": 10, "y": 50}},
		{"name": "SetFont", "args": {"name": "Swiss 721"}}
	]}`

	driver := newRecordingDriver()
	err := New(driver).Run(context.Background(), []byte(payload))
	require.Error(t, err)
	assert.True(t, protocol.IsInvalidArgument(err))
	assert.Empty(t, driver.calls)
}

func TestRunDriverFailureAbortsWithIndex(t *testing.T) {
	payload := `{"commands": [
		{"name": "Setup", "args": {"name": "A"}},
		{"name": "PrintFeed", "args": {}},
		{"name": "Comment", "args": {"text": "never reached"}}
	]}`

	driver := newRecordingDriver()
	driver.failAt = 1
	driver.failErr = errors.New("paper jam")

	err := New(driver).Run(context.Background(), []byte(payload))
	require.Error(t, err)

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Index)
	assert.Equal(t, protocol.OpPrintFeed, de.Op)
	assert.ErrorContains(t, err, "paper jam")

	dispatched, ok := DispatchedBefore(err)
	require.True(t, ok)
	assert.Equal(t, 1, dispatched)
	assert.Equal(t, []string{"Setup A"}, driver.calls)
}

func TestRunSessionPairedOnSuccess(t *testing.T) {
	driver := &sessionDriver{recordingDriver: *newRecordingDriver()}
	err := New(driver).Run(context.Background(), []byte(moveToPayload))
	require.NoError(t, err)
	assert.Equal(t, 1, driver.opens)
	assert.Equal(t, 1, driver.closes)
}

func TestRunSessionPairedOnDispatchFailure(t *testing.T) {
	driver := &sessionDriver{recordingDriver: *newRecordingDriver()}
	driver.failAt = 0
	driver.failErr = errors.New("offline")

	err := New(driver).Run(context.Background(), []byte(moveToPayload))
	require.Error(t, err)
	assert.Equal(t, 1, driver.opens)
	assert.Equal(t, 1, driver.closes)
}

func TestRunSessionOpenFailureSkipsConfigure(t *testing.T) {
	driver := &sessionDriver{recordingDriver: *newRecordingDriver()}
	driver.openErr = errors.New("connection refused")

	err := New(driver).Run(context.Background(), []byte(moveToPayload))
	require.Error(t, err)
	assert.Zero(t, driver.configured)
	assert.Zero(t, driver.closes)
}

func TestRunContextCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := newRecordingDriver()
	err := New(driver).Run(ctx, []byte(moveToPayload))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, driver.calls)
}

func TestRunTopLeftDeviceFlipsY(t *testing.T) {
	driver := &flippingDriver{recordingDriver: *newRecordingDriver()}
	err := New(driver).Run(context.Background(), []byte(moveToPayload))
	require.NoError(t, err)
	assert.Equal(t, []string{"MoveTo 10 10"}, driver.calls) // 60 - 50
}

func TestRunBottomLeftDevicePassesThrough(t *testing.T) {
	driver := newRecordingDriver()
	err := New(driver).Run(context.Background(), []byte(moveToPayload))
	require.NoError(t, err)
	assert.Equal(t, []string{"MoveTo 10 50"}, driver.calls)
}

func TestEmitterToInterpreterRoundTrip(t *testing.T) {
	// The envelope wire format carries command order end to end: N emitted
	// commands arrive as N dispatches in the same order.
	env := &protocol.Envelope{
		Version: protocol.Version,
		Layout:  protocol.LayoutContext{Width: 80, Height: 60, Units: "mm", Origin: "bottom-left", YDirection: "up"},
		Commands: []protocol.Command{
			protocol.Setup{Name: "SHELF"},
			protocol.MoveTo{X: 5, Y: 5},
			protocol.DrawText{Text: "a"},
			protocol.MoveTo{X: 5, Y: 15},
			protocol.DrawText{Text: "b"},
			protocol.PrintFeed{},
		},
	}
	data, err := protocol.EncodeEnvelope(env, false)
	require.NoError(t, err)

	driver := newRecordingDriver()
	require.NoError(t, New(driver).Run(context.Background(), data))
	assert.Equal(t, []string{
		"Setup SHELF",
		"MoveTo 5 5",
		"DrawText a",
		"MoveTo 5 15",
		"DrawText b",
		"PrintFeed",
	}, driver.calls)
}
