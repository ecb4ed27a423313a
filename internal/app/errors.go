package service

import "errors"

// Sentinel kinds for service lifecycle errors.
var (
	ErrNoOracle   = errors.New("no oracle configured")
	ErrNotStarted = errors.New("service not started")
)
