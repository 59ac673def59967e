package decoder

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a probability matrix's row width does
// not match the vocabulary's expected frame width.
var ErrShapeMismatch = errors.New("decoder: probability row width does not match vocabulary")

// ErrInvalidParameter is returned when a Config or call argument is out of
// its valid range.
var ErrInvalidParameter = errors.New("decoder: invalid parameter")

// ErrEmptyInput is returned when a decode call receives zero frames.
var ErrEmptyInput = errors.New("decoder: empty input")

func errInvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func errShapeMismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}
