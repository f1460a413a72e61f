package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete indicates that the input ended before a field could be read.
	ErrIncomplete = errors.New("incomplete replay data")

	// ErrMalformed indicates a violated magic constant, an unknown chunk kind
	// or a length invariant (a chunk body not consumed exactly).
	ErrMalformed = errors.New("malformed replay data")

	// ErrUnsupportedVersion indicates a container version this package cannot read.
	// Unsupported chunk body versions do not produce this error; those chunks
	// are kept as opaque DataChunk values instead.
	ErrUnsupportedVersion = errors.New("unsupported replay version")
)

// ParseError describes where and why decoding stopped.
// It unwraps to one of the sentinel errors of this package.
type ParseError struct {
	Op     string // Structure being decoded, e.g. "chunk header"
	Offset int    // Absolute byte offset in the replay
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vault: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// wrap prefixes op to the location of err.
// The innermost offset is kept; offset is used only when err has none.
func wrap(op string, offset int, err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ParseError); ok {
		return &ParseError{Op: op + ": " + pe.Op, Offset: pe.Offset, Err: pe.Err}
	}
	return &ParseError{Op: op, Offset: offset, Err: err}
}
