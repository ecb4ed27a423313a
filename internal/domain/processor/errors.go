package processor

import "errors"

// Sentinel kinds for processor errors.
var (
	ErrMissingCollection = errors.New("jet collection not found in event")
	ErrPublish           = errors.New("publish event result")
)
