// Package interp parses wire payloads and dispatches their commands to a
// driver in strict order.
//
// A run is a straight-line state machine:
//
//	Start → ParsedEnvelope → Configured → Dispatching → Done
//
// with a terminal Failed state reachable from every non-terminal one.
// The interpreter performs no local recovery and no retries: the first
// error aborts the run and surfaces with the failing command's index. A
// malformed command stream is an integration error, not a transient
// condition.
package interp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/platen/internal/protocol"
)

// Interpreter dispatches envelopes to a single driver. One interpreter
// may be reused for sequential, non-overlapping envelopes; concurrent use
// is undefined and must be prevented by the caller.
type Interpreter struct {
	driver Driver
	logger *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for per-run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(it *Interpreter) {
		it.logger = logger
	}
}

// New creates an Interpreter bound to one driver.
func New(driver Driver, opts ...Option) *Interpreter {
	it := &Interpreter{
		driver: driver,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Run parses a wire payload and dispatches it. Parse and argument
// validation happen before the driver sees anything: an envelope that
// fails to decode never opens a session or configures the driver.
func (it *Interpreter) Run(ctx context.Context, payload []byte) error {
	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	return it.RunEnvelope(ctx, env)
}

// RunEnvelope dispatches an already-decoded envelope.
//
// If the driver implements Session, its transport is opened before the
// driver is configured and released exactly once on every exit path,
// successful or not.
func (it *Interpreter) RunEnvelope(ctx context.Context, env *protocol.Envelope) (err error) {
	if session, ok := it.driver.(Session); ok {
		if openErr := session.Open(ctx); openErr != nil {
			return fmt.Errorf("open driver session: %w", openErr)
		}
		defer func() {
			if closeErr := session.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close driver session: %w", closeErr)
			}
		}()
	}

	if cfgErr := it.driver.Configure(env.Layout); cfgErr != nil {
		return fmt.Errorf("configure driver: %w", cfgErr)
	}
	it.logger.Debug("driver configured",
		"width", env.Layout.Width, "height", env.Layout.Height,
		"units", env.Layout.Units, "commands", len(env.Commands))

	for i, cmd := range env.Commands {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &DispatchError{Index: i, Op: cmd.Op(), Err: ctxErr}
		}
		if dispErr := it.dispatch(cmd); dispErr != nil {
			return &DispatchError{Index: i, Op: cmd.Op(), Err: dispErr}
		}
	}
	it.logger.Debug("run complete", "dispatched", len(env.Commands))
	return nil
}

// dispatch invokes the driver operation for one typed command. The
// variants were validated at decode time, so this is a plain fan-out.
func (it *Interpreter) dispatch(cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.Setup:
		return it.driver.Setup(c.Name)
	case protocol.SetFont:
		return it.driver.SetFont(c.Name, c.Size)
	case protocol.SetAlignment:
		return it.driver.SetAlignment(c.Align)
	case protocol.SetDirection:
		return it.driver.SetDirection(c.Direction)
	case protocol.MoveTo:
		return it.driver.MoveTo(c.X, c.Y)
	case protocol.DrawText:
		return it.driver.DrawText(c.Text)
	case protocol.DrawBarcode:
		return it.driver.DrawBarcode(c.Value, c.Type, c.Width, c.Ratio, c.Height, c.Size)
	case protocol.Comment:
		return it.driver.Comment(c.Text)
	case protocol.PrintFeed:
		return it.driver.PrintFeed()
	default:
		// Unreachable for envelopes produced by protocol.DecodeEnvelope;
		// guards hand-built envelopes with a foreign Command type.
		return fmt.Errorf("no driver operation for %T", cmd)
	}
}
