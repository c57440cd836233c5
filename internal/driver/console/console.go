// Package console implements a GDI-style stub backend that renders the
// command stream as bracketed trace lines. Its native coordinate space is
// top-left origin with Y increasing downward, so it exercises the Y-flip
// path of the coordinate transform.
package console

import (
	"fmt"
	"io"

	"github.com/roach88/platen/internal/protocol"
)

// Native device convention and DPI for the stub renderer.
const (
	Origin     = "top-left"
	YDirection = "down"
	DefaultDPI = 96.0
)

// Driver writes one trace line per operation to an io.Writer. It holds no
// transport, so it does not implement interp.Session.
type Driver struct {
	w      io.Writer
	layout protocol.LayoutContext
	dpi    float64
}

// New creates a console driver writing to w.
func New(w io.Writer) *Driver {
	return &Driver{w: w, dpi: DefaultDPI}
}

// Configure stores the canonical layout for coordinate conversion. A
// declared envelope DPI overrides the stub's native default.
func (d *Driver) Configure(layout protocol.LayoutContext) error {
	d.layout = layout
	if layout.DPI > 0 {
		d.dpi = layout.DPI
	}
	return nil
}

func (d *Driver) line(format string, args ...any) error {
	_, err := fmt.Fprintf(d.w, format+"\n", args...)
	return err
}

// Setup announces the label format being rendered.
func (d *Driver) Setup(name string) error {
	return d.line("[SETUP] %s", name)
}

// SetFont records the font selection.
func (d *Driver) SetFont(name string, size float64) error {
	return d.line("[FONT] %s %g", name, size)
}

// SetAlignment records the alignment change.
func (d *Driver) SetAlignment(align string) error {
	return d.line("[ALIGN] %s", align)
}

// SetDirection records the direction change.
func (d *Driver) SetDirection(direction string) error {
	return d.line("[DIR] %s", direction)
}

// MoveTo converts the canonical point into the stub's top-left/down space
// and records the device coordinates.
func (d *Driver) MoveTo(x, y float64) error {
	dx, dy := d.layout.ToDeviceCoords(x, y, Origin, YDirection)
	return d.line("[MOVE] %.1f,%.1f", dx, dy)
}

// DrawText records the text to render at the current position.
func (d *Driver) DrawText(text string) error {
	return d.line("[TEXT] %s", text)
}

// DrawBarcode records the barcode symbology, value and dot geometry.
func (d *Driver) DrawBarcode(value, kind string, width, ratio, height, size int64) error {
	return d.line("[BARCODE] %s '%s' %dx%d", kind, value, width, height)
}

// Comment records a diagnostic comment.
func (d *Driver) Comment(text string) error {
	return d.line("[COMMENT] %s", text)
}

// PrintFeed records the media feed.
func (d *Driver) PrintFeed() error {
	return d.line("[PRINTFEED]")
}

// DPI reports the effective dots-per-inch.
func (d *Driver) DPI() float64 {
	return d.dpi
}
