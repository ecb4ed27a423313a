// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config holding every default.
// - Load(ctx) layers a YAML file and JETTAG_ environment variables on top.
// - Validate reports every violation wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/jettag/internal/domain/microjet"
	"github.com/okian/jettag/internal/domain/processor"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event workers.
	WorkerCount int `koanf:"worker_count"`

	// JetParallelism is the number of jets of one event scored concurrently.
	JetParallelism int `koanf:"jet_parallelism"`

	// JetCollection is the label of the jet collection read from each event.
	JetCollection string `koanf:"jet_collection"`

	// InputCard is the path of the oracle's parameter file. Required.
	InputCard string `koanf:"input_card"`

	// MicrojetConeSize is the kt radius used for reclustering.
	MicrojetConeSize float64 `koanf:"microjet_cone_size"`

	// MicrojetMinPt is the transverse momentum threshold for microjets, in GeV.
	MicrojetMinPt float64 `koanf:"microjet_min_pt"`

	// MaxMicrojets caps the number of microjets handed to the oracle.
	MaxMicrojets int `koanf:"max_microjets"`

	// OracleURL is the base URL of the shower deconstruction service.
	OracleURL string `koanf:"oracle_url"`

	// OracleTimeoutMS bounds a single oracle call. Zero disables the bound.
	OracleTimeoutMS int `koanf:"oracle_timeout_ms"`

	// ResultStoreSize is the number of event results kept for GET /results.
	ResultStoreSize int `koanf:"result_store_size"`
}

// New creates a Config with defaults. The input card has no default.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		EventQueueSize:   10_000,
		WorkerCount:      runtime.NumCPU(),
		JetParallelism:   1,
		JetCollection:    processor.DefaultJetCollection,
		MicrojetConeSize: microjet.DefaultConeSize,
		MicrojetMinPt:    microjet.DefaultMinPt,
		MaxMicrojets:     microjet.DefaultMaxMicrojets,
		OracleURL:        "http://127.0.0.1:7070",
		OracleTimeoutMS:  30_000,
		ResultStoreSize:  100_000,
	}
}

// OracleTimeout returns OracleTimeoutMS as a duration.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutMS) * time.Millisecond
}

// Validate checks every field and joins all violations.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Addr != "", "addr must not be empty")
	check(strings.TrimSpace(c.JetCollection) != "", "jet_collection must not be empty")
	check(c.MicrojetConeSize > 0, "microjet_cone_size must be positive, got %v", c.MicrojetConeSize)
	check(c.MicrojetMinPt >= 0, "microjet_min_pt must not be negative, got %v", c.MicrojetMinPt)
	check(c.MaxMicrojets >= 1, "max_microjets must be at least 1, got %d", c.MaxMicrojets)
	check(c.JetParallelism >= 1, "jet_parallelism must be at least 1, got %d", c.JetParallelism)
	check(c.EventQueueSize >= 1, "queue_size must be at least 1, got %d", c.EventQueueSize)
	check(c.WorkerCount >= 1, "worker_count must be at least 1, got %d", c.WorkerCount)
	check(c.OracleTimeoutMS >= 0, "oracle_timeout_ms must not be negative, got %d", c.OracleTimeoutMS)
	check(c.ResultStoreSize >= 1, "result_store_size must be at least 1, got %d", c.ResultStoreSize)

	if c.InputCard == "" {
		errs = append(errs, fmt.Errorf("%w: input_card is required", ErrInputCard))
	} else if info, err := os.Stat(c.InputCard); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInputCard, err))
	} else if info.IsDir() {
		errs = append(errs, fmt.Errorf("%w: input_card %s is a directory", ErrInputCard, c.InputCard))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
