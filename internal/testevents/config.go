// Package testevents drives a running tagging service with synthetic
// boosted-jet events and verifies what it publishes.
package testevents

import (
	"errors"
	"time"

	"github.com/okian/jettag/internal/domain/processor"
)

// Defaults used when Config fields are left zero.
const (
	DefaultNumEvents    = 1000
	DefaultJetsPerEvent = 3
	DefaultTopN         = 20
	DefaultTimeout      = 10 * time.Second
	DefaultWaitTimeout  = 2 * time.Minute
)

// ErrVerification is returned when published results disagree with the
// submitted events.
var ErrVerification = errors.New("verification failed")

// Config holds configuration for the event test.
type Config struct {
	BaseURL      string        // base URL of the service
	NumEvents    int           // number of events to generate
	JetsPerEvent int           // jets in the tagged collection of each event
	Collection   string        // jet collection label
	TopN         int           // number of ranked jets to fetch
	Workers      int           // concurrent HTTP requests
	Timeout      time.Duration // per-request timeout
	WaitTimeout  time.Duration // how long to wait for all results
	Seed         uint64        // generator seed; runs with equal seeds produce equal jets
	OutputFile   string        // optional JSON-lines copy of the generated events
	Verbose      bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.NumEvents <= 0 {
		out.NumEvents = DefaultNumEvents
	}
	if out.JetsPerEvent <= 0 {
		out.JetsPerEvent = DefaultJetsPerEvent
	}
	if out.Collection == "" {
		out.Collection = processor.DefaultJetCollection
	}
	if out.TopN <= 0 {
		out.TopN = DefaultTopN
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.WaitTimeout <= 0 {
		out.WaitTimeout = DefaultWaitTimeout
	}
	return out
}

// Stats holds test statistics.
type Stats struct {
	EventsGenerated  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsRejected   int
	ResultsRetrieved int
	JetsOK           int
	JetsFailed       int
	TopJets          int
	Duration         time.Duration
}
