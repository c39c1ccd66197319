package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid is the sentinel wrapped by every ValidationError.
	ErrInvalid = errors.New("query: invalid query")
	// ErrTooManyEdges is returned when an answer would exceed the edge cutoff.
	ErrTooManyEdges = errors.New("query: too many answer edges")
)

// ValidationError describes a query that cannot be answered as posed.
type ValidationError struct {
	Reason string
	cause  error
}

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.cause != nil {
		return "query: " + e.Reason + ": " + e.cause.Error()
	}
	return "query: " + e.Reason
}

// Is reports ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func (e *ValidationError) Unwrap() error { return e.cause }

// CutoffError carries the limit that was exceeded.
type CutoffError struct {
	Cutoff int
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("query: answer would have more than %d edges; use fewer input ids or more specific categories and predicates", e.Cutoff)
}

// Is reports ErrTooManyEdges.
func (e *CutoffError) Is(target error) bool { return target == ErrTooManyEdges }
