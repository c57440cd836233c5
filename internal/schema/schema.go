// Package schema validates wire payloads against the canonical envelope
// schema. The schema is authored in CUE and embedded at build time, so
// validation needs no external resources.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed envelope.cue
var envelopeCUE string

// ErrCodeSchemaViolation is the error code for non-conformant payloads.
const ErrCodeSchemaViolation = "SCHEMA_VIOLATION"

// Violation describes one schema conformance failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ViolationError reports that a payload failed schema validation.
// It collects all violations rather than failing fast.
type ViolationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		if v.Path != "" {
			return fmt.Sprintf("%s: %s: %s", ErrCodeSchemaViolation, v.Path, v.Message)
		}
		return fmt.Sprintf("%s: %s", ErrCodeSchemaViolation, v.Message)
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Path != "" {
			parts = append(parts, v.Path+": "+v.Message)
		} else {
			parts = append(parts, v.Message)
		}
	}
	return fmt.Sprintf("%s: %d violations: %s", ErrCodeSchemaViolation, len(e.Violations), strings.Join(parts, "; "))
}

var compileOnce = sync.OnceValues(func() (cue.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(envelopeCUE, cue.Filename("envelope.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile envelope schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Envelope"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("lookup #Envelope: %w", err)
	}
	return def, nil
})

// Validate checks a serialized payload against the canonical envelope
// schema. Returns nil for conformant payloads and a *ViolationError
// listing every failure otherwise. A payload that is not valid JSON is
// itself reported as a violation.
func Validate(payload []byte) error {
	def, err := compileOnce()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("payload.json", payload)
	if err != nil {
		return &ViolationError{Violations: []Violation{{
			Message: fmt.Sprintf("payload is not valid JSON: %v", err),
		}}}
	}

	val := def.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &ViolationError{Violations: toViolations(err)}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return &ViolationError{Violations: toViolations(err)}
	}
	return nil
}

// toViolations flattens a CUE error list into path/message pairs.
func toViolations(err error) []Violation {
	errs := cueerrors.Errors(err)
	violations := make([]Violation, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		violations = append(violations, Violation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return violations
}
