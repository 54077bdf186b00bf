package rcconf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when a key is not a valid shell variable name.
	ErrInvalidKey = errors.New("invalid rc.conf key")
	// ErrInvalidValue is returned for values that cannot be written on one line.
	ErrInvalidValue = errors.New("invalid rc.conf value")
)

// SyntaxError describes a line that could not be parsed.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rc.conf line %d: %s", e.Line, e.Msg)
}
