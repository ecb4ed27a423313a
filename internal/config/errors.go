package config

import "errors"

// Sentinels returned by Load and Validate; match them with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid tagger configuration")
	ErrLoadConfig    = errors.New("cannot load tagger configuration")
	// ErrInputCard marks a shower deconstruction input card that is unset
	// or unreadable. It is always joined under ErrInvalidConfig.
	ErrInputCard = errors.New("unusable input card")
)
