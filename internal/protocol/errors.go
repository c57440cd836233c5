package protocol

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes protocol errors.
type ErrorCode string

const (
	// ErrCodeMalformedPayload indicates the wire payload is not valid JSON,
	// or the top-level commands key is absent or not an array.
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"

	// ErrCodeUnsupportedCommand indicates a command name outside the fixed
	// operation set.
	ErrCodeUnsupportedCommand ErrorCode = "UNSUPPORTED_COMMAND"

	// ErrCodeInvalidArgument indicates a missing required argument or a
	// wrong-typed value for one.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error represents a protocol-level failure with enough context to
// diagnose it: the failing command's 0-based index (or -1 when the error
// is not tied to one command) and the offending field path.
type Error struct {
	Code    ErrorCode
	Message string
	Index   int
	Field   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("%s: commands[%d].%s: %s", e.Code, e.Index, e.Field, e.Message)
	case e.Index >= 0:
		return fmt.Sprintf("%s: commands[%d]: %s", e.Code, e.Index, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewMalformedPayload creates an Error for an unparseable payload.
func NewMalformedPayload(message string) *Error {
	return &Error{Code: ErrCodeMalformedPayload, Message: message, Index: -1}
}

// NewUnsupportedCommand creates an Error for an unknown command name.
func NewUnsupportedCommand(index int, name string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedCommand,
		Message: fmt.Sprintf("unsupported command %q", name),
		Index:   index,
		Field:   "name",
	}
}

// NewInvalidArgument creates an Error for a missing or mistyped argument.
func NewInvalidArgument(index int, field, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: message,
		Index:   index,
		Field:   field,
	}
}

// IsMalformedPayload reports whether err is a MALFORMED_PAYLOAD error.
// Uses errors.As to handle wrapped errors.
func IsMalformedPayload(err error) bool {
	return hasCode(err, ErrCodeMalformedPayload)
}

// IsUnsupportedCommand reports whether err is an UNSUPPORTED_COMMAND error.
func IsUnsupportedCommand(err error) bool {
	return hasCode(err, ErrCodeUnsupportedCommand)
}

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
