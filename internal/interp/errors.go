package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/platen/internal/protocol"
)

// DispatchError reports a driver operation failure during command
// dispatch. Index is the 0-based position of the failing command, which
// is also the number of commands dispatched successfully before it; no
// later command was attempted.
type DispatchError struct {
	Index int
	Op    protocol.Op
	Err   error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch commands[%d] %s: %v", e.Index, e.Op, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// DispatchedBefore returns how many commands were dispatched successfully
// before err aborted the run, and whether err carries that information.
func DispatchedBefore(err error) (int, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Index, true
	}
	return 0, false
}
