package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound     = errors.New("event result not found")
	ErrDuplicate    = errors.New("event result already stored")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
