package service

import (
	"fmt"
	"time"

	"github.com/okian/jettag/internal/config"
	"github.com/okian/jettag/internal/domain/microjet"
	"github.com/okian/jettag/internal/domain/oracle"
	"github.com/okian/jettag/internal/domain/processor"
	"github.com/okian/jettag/internal/domain/scoring"
	"github.com/okian/jettag/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithResultStoreSize sets how many event results are kept for lookups.
func WithResultStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.resultStoreSize = size
		}
	}
}

// WithJetParallelism sets how many jets of one event are scored concurrently.
func WithJetParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jetParallelism = n
		}
	}
}

// WithJetCollection sets the jet collection label read from each event.
func WithJetCollection(label string) Option {
	return func(s *Service) {
		if label != "" {
			s.jetCollection = label
		}
	}
}

// WithMicrojetBuilder replaces the default reclustering settings.
func WithMicrojetBuilder(b *microjet.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithOracle sets the discrimination oracle. Required.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithOracleTimeout bounds each oracle call. Zero disables the bound.
func WithOracleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.oracleTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// OptionsFromConfig translates a validated configuration into service
// options, including an HTTP oracle client for cfg.OracleURL.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	client, builder, err := fromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithOracle(client),
		WithOracleTimeout(cfg.OracleTimeout()),
		WithMicrojetBuilder(builder),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.EventQueueSize),
		WithDedupeSize(cfg.ResultStoreSize),
		WithResultStoreSize(cfg.ResultStoreSize),
		WithJetParallelism(cfg.JetParallelism),
		WithJetCollection(cfg.JetCollection),
	}, nil
}

// NewProcessor builds the synchronous tagging pipeline described by cfg,
// for batch use without the queue and worker pool.
func NewProcessor(cfg *config.Config) (*processor.Processor, error) {
	client, builder, err := fromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return newProcessor(client, builder, cfg.OracleTimeout(), cfg.JetCollection, cfg.JetParallelism), nil
}

func fromConfig(cfg *config.Config) (*oracle.HTTPClient, *microjet.Builder, error) {
	client, err := oracle.NewHTTPClient(cfg.OracleURL, cfg.InputCard)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle client: %w", err)
	}
	builder := microjet.NewBuilder(
		microjet.WithConeSize(cfg.MicrojetConeSize),
		microjet.WithMinPt(cfg.MicrojetMinPt),
		microjet.WithMaxMicrojets(cfg.MaxMicrojets),
	)
	return client, builder, nil
}

func newProcessor(o oracle.Oracle, b *microjet.Builder, timeout time.Duration, collection string, parallelism int) *processor.Processor {
	scorer := scoring.New(o,
		scoring.WithBuilder(b),
		scoring.WithOracleTimeout(timeout),
	)
	return processor.New(scorer,
		processor.WithJetCollection(collection),
		processor.WithParallelism(parallelism),
	)
}
