// Package importer turns pasted or uploaded text into canonical requests.
//
// It understands curl command lines, Postman collections (v2 / v2.1) and the
// native bundle schema, and can sniff which of these a blob of text is. Nothing
// in this package mutates state: every function returns the requests and
// collections it built and leaves merging them to the caller.
package importer

import (
	"errors"
	"fmt"
)

// ErrNoURL is the reason carried by a ParseError when a curl command has no URL.
var ErrNoURL = errors.New("no URL found")

// ErrNotObject is returned inside a FormatError when the top-level JSON value is not an object.
var ErrNotObject = errors.New("top-level value is not an object")

// ParseError is returned when a curl command cannot be turned into a request.
type ParseError struct {
	Reason error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse curl command: %v", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

// FormatError is returned when a Postman or native JSON payload does not have the expected shape.
type FormatError struct {
	Format string // "postman" or "json"
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
