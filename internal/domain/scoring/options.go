package scoring

import (
	"time"

	"github.com/okian/jettag/internal/domain/microjet"
	"github.com/okian/jettag/pkg/logger"
)

// Option applies a configuration option to the JetScorer.
type Option func(*JetScorer)

// WithBuilder sets the microjet builder used before every oracle call.
func WithBuilder(b *microjet.Builder) Option {
	return func(s *JetScorer) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithOracleTimeout bounds every oracle call. Zero disables the bound.
func WithOracleTimeout(d time.Duration) Option {
	return func(s *JetScorer) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the scorer.
func WithLogger(l logger.Logger) Option {
	return func(s *JetScorer) {
		if l != nil {
			s.logger = l
		}
	}
}
