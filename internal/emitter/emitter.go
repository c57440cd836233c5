// Package emitter builds command envelopes incrementally and serializes
// them to the wire format. Emitters are authoring-side only: they never
// know which backend will consume the stream.
package emitter

import (
	"fmt"

	"github.com/roach88/platen/internal/protocol"
	"github.com/roach88/platen/internal/schema"
)

// Emitter accumulates layout geometry and commands for one envelope.
// Not safe for concurrent use; build one emitter per print job.
type Emitter struct {
	version  string
	layout   protocol.LayoutContext
	commands []protocol.Command
	document map[string]any
}

// Option configures an Emitter at construction time.
type Option func(*Emitter)

// WithVersion overrides the protocol version written into the envelope.
func WithVersion(version string) Option {
	return func(e *Emitter) {
		e.version = version
	}
}

// New creates an Emitter with the canonical layout defaults. A non-empty
// source is recorded under the document "source" key so consumers can
// trace a payload back to the template that produced it.
func New(source string, opts ...Option) *Emitter {
	e := &Emitter{
		version:  protocol.Version,
		layout:   protocol.DefaultLayout(),
		document: make(map[string]any),
	}
	if source != "" {
		e.document["source"] = source
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLayout replaces the envelope's layout fields. Width and height must
// be non-negative; no other numeric range is enforced here. Unset
// convention fields fall back to the canonical defaults.
func (e *Emitter) SetLayout(lc protocol.LayoutContext) error {
	if lc.Width < 0 {
		return fmt.Errorf("layout width must be non-negative, got %v", lc.Width)
	}
	if lc.Height < 0 {
		return fmt.Errorf("layout height must be non-negative, got %v", lc.Height)
	}
	if lc.Units == "" {
		lc.Units = protocol.DefaultUnits
	}
	if lc.Origin == "" {
		lc.Origin = protocol.DefaultOrigin
	}
	if lc.YDirection == "" {
		lc.YDirection = protocol.DefaultYDirection
	}
	e.layout = lc
	return nil
}

// SetDocument records a free-form metadata entry. The core never
// interprets document metadata.
func (e *Emitter) SetDocument(key string, value any) *Emitter {
	e.document[key] = value
	return e
}

// Emit appends a command, preserving insertion order. Returns the
// emitter to allow chained calls.
func (e *Emitter) Emit(cmd protocol.Command) *Emitter {
	e.commands = append(e.commands, cmd)
	return e
}

// EmitRaw resolves a wire-shaped name/args pair into a typed command
// and appends it. The pair passes through the same validation the
// decoder applies, so an unknown name or a bad argument set is rejected
// here instead of surfacing at interpretation time. The index in a
// returned *protocol.Error is the command's would-be position.
func (e *Emitter) EmitRaw(name string, args map[string]any) error {
	cmd, err := protocol.ResolveCommand(len(e.commands), name, args)
	if err != nil {
		return err
	}
	e.commands = append(e.commands, cmd)
	return nil
}

// Len returns the number of commands emitted so far.
func (e *Emitter) Len() int {
	return len(e.commands)
}

// Payload returns the full envelope structure.
func (e *Emitter) Payload() *protocol.Envelope {
	env := &protocol.Envelope{
		Version:  e.version,
		Layout:   e.layout,
		Commands: append([]protocol.Command(nil), e.commands...),
	}
	if len(e.document) > 0 {
		env.Document = e.document
	}
	return env
}

// Serialize renders the payload to the wire text format.
func (e *Emitter) Serialize(pretty bool) ([]byte, error) {
	return protocol.EncodeEnvelope(e.Payload(), pretty)
}

// Validate checks the serialized payload against the canonical schema.
// This is an explicit step; the emitter never self-validates implicitly.
// Returns a *schema.ViolationError when the payload does not conform.
func (e *Emitter) Validate() error {
	data, err := e.Serialize(false)
	if err != nil {
		return err
	}
	return schema.Validate(data)
}
