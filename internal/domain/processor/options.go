package processor

import (
	"github.com/okian/jettag/pkg/logger"
)

// DefaultJetCollection is the jet collection label read when none is configured.
const DefaultJetCollection = "goodPatJetsCA8PF"

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithJetCollection sets the label of the jet collection to score.
func WithJetCollection(label string) Option {
	return func(p *Processor) {
		if label != "" {
			p.collection = label
		}
	}
}

// WithParallelism scores up to n jets of one event concurrently.
// Values below 2 keep scoring sequential.
func WithParallelism(n int) Option {
	return func(p *Processor) {
		if n >= 1 {
			p.parallelism = n
		}
	}
}

// WithLogger sets a custom logger for the processor.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}
