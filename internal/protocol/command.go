package protocol

// Op identifies one operation in the fixed command set.
type Op string

// The closed operation set. Adding an operation requires a protocol
// version bump and a matching Driver method.
const (
	OpSetup        Op = "Setup"
	OpSetFont      Op = "SetFont"
	OpSetAlignment Op = "SetAlignment"
	OpSetDirection Op = "SetDirection"
	OpMoveTo       Op = "MoveTo"
	OpDrawText     Op = "DrawText"
	OpDrawBarcode  Op = "DrawBarcode"
	OpComment      Op = "Comment"
	OpPrintFeed    Op = "PrintFeed"
)

// Command is a sealed interface over the fixed operation set. Only the
// concrete command structs in this file implement it. Each variant carries
// its validated, typed argument payload; validation happens once during
// decoding, never again at dispatch.
type Command interface {
	Op() Op
	command() // sealed
}

// Setup prepares the printer for a named label format.
type Setup struct {
	Name string
}

// SetFont selects a font family and point size.
type SetFont struct {
	Name string
	Size float64
}

// SetAlignment adjusts horizontal alignment for subsequent operations.
type SetAlignment struct {
	Align string
}

// SetDirection switches the print direction, e.g. normal or reverse.
type SetDirection struct {
	Direction string
}

// MoveTo moves the print head to an absolute canonical position.
type MoveTo struct {
	X float64
	Y float64
}

// DrawText renders text at the current cursor position.
type DrawText struct {
	Text string
}

// DrawBarcode renders a one-dimensional barcode at the current position.
type DrawBarcode struct {
	Value  string
	Type   string
	Width  int64
	Ratio  int64
	Height int64
	Size   int64
}

// Comment records a diagnostic comment in the output stream.
type Comment struct {
	Text string
}

// PrintFeed advances the media and triggers printing.
type PrintFeed struct{}

func (Setup) Op() Op        { return OpSetup }
func (SetFont) Op() Op      { return OpSetFont }
func (SetAlignment) Op() Op { return OpSetAlignment }
func (SetDirection) Op() Op { return OpSetDirection }
func (MoveTo) Op() Op       { return OpMoveTo }
func (DrawText) Op() Op     { return OpDrawText }
func (DrawBarcode) Op() Op  { return OpDrawBarcode }
func (Comment) Op() Op      { return OpComment }
func (PrintFeed) Op() Op    { return OpPrintFeed }

func (Setup) command()        {}
func (SetFont) command()      {}
func (SetAlignment) command() {}
func (SetDirection) command() {}
func (MoveTo) command()       {}
func (DrawText) command()     {}
func (DrawBarcode) command()  {}
func (Comment) command()      {}
func (PrintFeed) command()    {}

// wireArgs returns the command's arguments in wire shape. Used by the
// encoder; map keys are sorted by encoding/json, which keeps serialized
// payloads deterministic.
func wireArgs(cmd Command) map[string]any {
	switch c := cmd.(type) {
	case Setup:
		return map[string]any{"name": c.Name}
	case SetFont:
		return map[string]any{"name": c.Name, "size": c.Size}
	case SetAlignment:
		return map[string]any{"align": c.Align}
	case SetDirection:
		return map[string]any{"direction": c.Direction}
	case MoveTo:
		return map[string]any{"x": c.X, "y": c.Y}
	case DrawText:
		return map[string]any{"text": c.Text}
	case DrawBarcode:
		return map[string]any{
			"value":  c.Value,
			"type":   c.Type,
			"width":  c.Width,
			"ratio":  c.Ratio,
			"height": c.Height,
			"size":   c.Size,
		}
	case Comment:
		return map[string]any{"text": c.Text}
	case PrintFeed:
		return map[string]any{}
	default:
		return map[string]any{}
	}
}
