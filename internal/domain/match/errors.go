package match

import "errors"

var (
	ErrNotFound          = errors.New("match not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrKindMismatch      = errors.New("record kind does not support this operation")
	ErrUnknownField      = errors.New("unknown field for record kind")
	ErrInvalidRecord     = errors.New("invalid record")
)
