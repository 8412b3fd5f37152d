package types

import "errors"

// Domain errors shared across pipeline components.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDimMismatch       = errors.New("vector dimensionality mismatch")
	ErrEmptyQuery        = errors.New("query cannot be empty")
)
