package interp

import (
	"context"

	"github.com/roach88/platen/internal/protocol"
)

// Driver is the fixed capability interface every concrete backend
// implements. Backends own their native coordinate convention and perform
// the final transform themselves using the LayoutContext received through
// Configure; the interpreter always passes canonical coordinates.
//
// Operations are invoked synchronously and are expected to block only on
// the driver's own transport. The interpreter imposes no timeouts; a
// caller wanting a deadline wraps the whole Run call.
//
// A single driver instance must not be shared by concurrent runs. The
// interpreter guarantees sequential dispatch within one run; exclusivity
// across runs is the caller's responsibility (one driver per job, or
// external locking).
type Driver interface {
	// Configure hands the driver the canonical layout for the run.
	// Called exactly once per run, before any command is dispatched.
	Configure(layout protocol.LayoutContext) error

	Setup(name string) error
	SetFont(name string, size float64) error
	SetAlignment(align string) error
	SetDirection(direction string) error
	MoveTo(x, y float64) error
	DrawText(text string) error
	DrawBarcode(value, kind string, width, ratio, height, size int64) error
	Comment(text string) error
	PrintFeed() error

	// DPI reports the device's native dots-per-inch.
	DPI() float64
}

// Session is implemented by drivers that hold a per-run scoped resource,
// typically an open transport. The interpreter pairs Open and Close
// exactly once per run regardless of the exit path; drivers without a
// transport simply don't implement Session.
type Session interface {
	Open(ctx context.Context) error
	Close() error
}
