package oracle

import "errors"

// Sentinel kinds for oracle errors. Every failure returned by the adapters in
// this package matches ErrOracle.
var (
	ErrOracle    = errors.New("discrimination oracle failed")
	ErrNonFinite = errors.New("oracle returned non-finite values")
	ErrTimeout   = errors.New("oracle call timed out")
)
