package internalerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingColumn = errors.New("missing required column")
	ErrParse         = errors.New("parse error")
	ErrComputation   = errors.New("computation error")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ColumnError reports required columns absent from an input table.
type ColumnError struct {
	Table   string
	Missing []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s table must contain the columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }

// RowFailure describes one row that could not be parsed.
type RowFailure struct {
	Line   int
	Key    string
	Reason string
}

// maxListedFailures caps how many rows ParseError prints.
const maxListedFailures = 5

// ParseError aggregates per-row failures of a table load.
type ParseError struct {
	Table    string
	Failures []RowFailure
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d row(s) could not be parsed", e.Table, len(e.Failures))
	for i, f := range e.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "; and %d more", len(e.Failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(&b, "; line %d (%s): %s", f.Line, f.Key, f.Reason)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return ErrParse }

// FilterError is returned when a user supplied filter cannot be applied.
// It is recoverable: callers continue with the unfiltered input.
type FilterError struct {
	Pattern string
	Err     error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter pattern %q: %v", e.Pattern, e.Err)
}

func (e *FilterError) Unwrap() []error { return []error{ErrInvalidFilter, e.Err} }
