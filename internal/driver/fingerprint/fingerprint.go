// Package fingerprint implements a thermal label printer backend speaking
// Intermec-style Direct Protocol (Fingerprint) over a raw TCP transport,
// conventionally port 9100. The printer's native coordinate space matches
// the canonical one (bottom-left origin, Y-up), so coordinates pass
// through unchanged.
//
// The driver supports a dry-run mode that records the command lines it
// would have sent; examples and tests use it to inspect the exact wire
// traffic without a printer on the network.
package fingerprint

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/roach88/platen/internal/protocol"
)

// Native device convention and DPI of the PD41 family.
const (
	Origin     = "bottom-left"
	YDirection = "up"
	DefaultDPI = 203.0
)

// DefaultTimeout bounds the TCP dial and writes.
const DefaultTimeout = 5 * time.Second

// Driver sends Fingerprint command lines to a printer. It implements
// interp.Session: the TCP connection is scoped to one interpretation run.
type Driver struct {
	addr    string
	timeout time.Duration
	dryRun  bool

	conn   net.Conn
	sent   []string
	layout protocol.LayoutContext
	dpi    float64
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeout sets the dial and write deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.timeout = timeout
	}
}

// DryRun makes the driver record command lines instead of opening a
// connection and writing to it.
func DryRun() Option {
	return func(d *Driver) {
		d.dryRun = true
	}
}

// New creates a fingerprint driver for the given "host:port" address.
func New(addr string, opts ...Option) *Driver {
	d := &Driver{
		addr:    addr,
		timeout: DefaultTimeout,
		dpi:     DefaultDPI,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open acquires the transport for one run. In dry-run mode it only resets
// the recorded line buffer.
func (d *Driver) Open(ctx context.Context) error {
	d.sent = d.sent[:0]
	if d.dryRun {
		return nil
	}
	dialer := net.Dialer{Timeout: d.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return &TransportError{Addr: d.addr, Op: "dial", Err: err}
	}
	d.conn = conn
	return nil
}

// Close releases the transport. The write half is shut down first so the
// printer sees a clean end of stream before the socket goes away.
func (d *Driver) Close() error {
	if d.conn == nil {
		return nil
	}
	if tcp, ok := d.conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	err := d.conn.Close()
	d.conn = nil
	if err != nil {
		return &TransportError{Addr: d.addr, Op: "close", Err: err}
	}
	return nil
}

// Sent returns the command lines recorded in dry-run mode, without CRLF
// terminators.
func (d *Driver) Sent() []string {
	return d.sent
}

// send writes one CRLF-terminated command line.
func (d *Driver) send(line string) error {
	if d.dryRun {
		d.sent = append(d.sent, line)
		return nil
	}
	if d.conn == nil {
		return &TransportError{Addr: d.addr, Op: "write", Err: errNotConnected}
	}
	if d.timeout > 0 {
		_ = d.conn.SetWriteDeadline(time.Now().Add(d.timeout))
	}
	if _, err := d.conn.Write([]byte(line + "\r\n")); err != nil {
		return &TransportError{Addr: d.addr, Op: "write", Err: err}
	}
	return nil
}

// quote escapes a string for a Fingerprint quoted literal: embedded
// double quotes are doubled.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Configure stores the canonical layout. A declared envelope DPI
// overrides the printer default.
func (d *Driver) Configure(layout protocol.LayoutContext) error {
	d.layout = layout
	if layout.DPI > 0 {
		d.dpi = layout.DPI
	}
	return nil
}

// Setup selects a named label format.
func (d *Driver) Setup(name string) error {
	return d.send("SETUP " + quote(name))
}

// SetFont selects the font; Fingerprint takes whole point sizes.
func (d *Driver) SetFont(name string, size float64) error {
	return d.send(fmt.Sprintf("FONT %s,%d", quote(name), int64(size)))
}

// SetAlignment sets the anchor point for subsequent print commands.
func (d *Driver) SetAlignment(align string) error {
	return d.send("ALIGN " + align)
}

// SetDirection sets the print direction.
func (d *Driver) SetDirection(direction string) error {
	return d.send("DIR " + direction)
}

// MoveTo positions the insertion point. The printer shares the canonical
// convention, so the transform is the identity; coordinates are truncated
// to whole units as the firmware expects.
func (d *Driver) MoveTo(x, y float64) error {
	dx, dy := d.layout.ToDeviceCoords(x, y, Origin, YDirection)
	return d.send(fmt.Sprintf("PRPOS %d,%d", int64(dx), int64(dy)))
}

// DrawText prints text at the insertion point.
func (d *Driver) DrawText(text string) error {
	return d.send("PRTXT " + quote(text))
}

// DrawBarcode configures the symbology with BARSET and prints the value.
func (d *Driver) DrawBarcode(value, kind string, width, ratio, height, size int64) error {
	if err := d.send(fmt.Sprintf("BARSET %s,%d,%d,%d,%d", quote(kind), width, ratio, height, size)); err != nil {
		return err
	}
	return d.send("PRBAR " + quote(value))
}

// Comment emits a REM line, ignored by the firmware but useful in traces.
func (d *Driver) Comment(text string) error {
	return d.send(fmt.Sprintf("REM -- %s --", text))
}

// PrintFeed prints the label and advances the media.
func (d *Driver) PrintFeed() error {
	return d.send("PRINTFEED")
}

// DPI reports the effective dots-per-inch.
func (d *Driver) DPI() float64 {
	return d.dpi
}
