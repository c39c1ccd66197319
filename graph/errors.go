package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is the sentinel wrapped by every DataError.
	ErrMalformed = errors.New("graph: malformed dump")
	// ErrUnsupportedFormat is returned for file names without a known extension.
	ErrUnsupportedFormat = errors.New("graph: unsupported dump format")
)

// DataError describes a record that cannot be loaded.
type DataError struct {
	Input  string
	Line   int
	ID     string
	Reason string
	cause  error
}

func (e *DataError) Error() string {
	msg := "graph: " + e.Reason
	if e.ID != "" {
		msg += fmt.Sprintf(" (record %q)", e.ID)
	}
	if e.Input != "" {
		msg += " in " + e.Input
		if e.Line > 0 {
			msg += fmt.Sprintf(":%d", e.Line)
		}
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Is reports ErrMalformed so callers can classify without a type assertion.
func (e *DataError) Is(target error) bool { return target == ErrMalformed }

func (e *DataError) Unwrap() error { return e.cause }
