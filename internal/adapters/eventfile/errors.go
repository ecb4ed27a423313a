package eventfile

import "errors"

var (
	// ErrInvalidRecord is returned when a record cannot be converted to a
	// domain value.
	ErrInvalidRecord = errors.New("invalid event record")
	// ErrDecode is returned when a line is not valid JSON.
	ErrDecode = errors.New("decode event line")
)
