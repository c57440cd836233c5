package protocol

// Version is the protocol version written into emitted envelopes.
const Version = "1.0"

// Envelope is the complete in-flight message describing one print job:
// protocol version, canonical layout geometry, the ordered command
// sequence, and optional free-form document metadata the core never
// interprets.
//
// Envelopes are transient: created per print job, never mutated after
// being handed to the Interpreter, never persisted by the core (the run
// journal stores the serialized wire text, not the struct).
type Envelope struct {
	Version  string
	Layout   LayoutContext
	Commands []Command
	Document map[string]any
}
