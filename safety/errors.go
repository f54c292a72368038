package safety

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is wrapped by every RejectionError.
	ErrRejected = errors.New("strategy rejected")
	// ErrInvalidName is returned for empty or over-long strategy names.
	ErrInvalidName = errors.New("invalid strategy name")
)

// RejectionError carries the rule that fired and its reason verbatim.
type RejectionError struct {
	Name   string
	Rule   string
	Reason string
	Line   int
}

func (e *RejectionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("strategy %q rejected (%s, line %d): %s", e.Name, e.Rule, e.Line, e.Reason)
	}
	return fmt.Sprintf("strategy %q rejected (%s): %s", e.Name, e.Rule, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }
