// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"

	"github.com/okian/jettag/internal/domain/kinematics"
)

// Names under which per-event arrays are handed to the result sink.
const (
	OutputPSignal     = "PSignal"
	OutputPBackground = "PBackground"
	OutputChi         = "chi"
	OutputNMicrojets  = "NMicrojets"
	OutputJetPt       = "JetPt"
	OutputJetEta      = "JetEta"
	OutputJetPhi      = "JetPhi"
	OutputJetEnergy   = "JetEnergy"
	OutputJetMass     = "JetMass"
)

// OutputNames lists every published array in a stable order.
var OutputNames = []string{
	OutputPSignal,
	OutputPBackground,
	OutputChi,
	OutputNMicrojets,
	OutputJetPt,
	OutputJetEta,
	OutputJetPhi,
	OutputJetEnergy,
	OutputJetMass,
}

// Event is a read-only snapshot of one collision event.
type Event struct {
	EventID     string           // unique id, assigned at ingest when absent
	Run         uint64           // run number
	Lumi        uint64           // luminosity block
	Number      uint64           // event number within the run
	TS          time.Time        // ingest timestamp
	Collections map[string][]Jet // jet collections keyed by label
}

// Jets returns the jet collection with the given label.
func (e Event) Jets(label string) ([]Jet, bool) {
	jets, ok := e.Collections[label]
	return jets, ok
}

// Jet is a large-radius jet with its ordered constituent particles.
type Jet struct {
	P4        kinematics.FourVector
	Daughters []Daughter
}

// Daughter is one constituent particle of a jet as stored in the event.
// Only daughters that also implement PFMomentum can be reclustered.
type Daughter interface {
	Kind() string
}

// PFMomentum is the particle-flow four-momentum capability.
type PFMomentum interface {
	Px() float64
	Py() float64
	Pz() float64
	Energy() float64
}

// Known daughter kinds.
const (
	KindPF = "pf"
)

// PFCandidate is a particle-flow candidate.
type PFCandidate struct {
	PdgID  int
	Charge int
	P4     kinematics.FourVector
}

func (c *PFCandidate) Kind() string    { return KindPF }
func (c *PFCandidate) Px() float64     { return c.P4.Px() }
func (c *PFCandidate) Py() float64     { return c.P4.Py() }
func (c *PFCandidate) Pz() float64     { return c.P4.Pz() }
func (c *PFCandidate) Energy() float64 { return c.P4.E() }

// OpaqueCandidate is a daughter whose representation carries no usable
// particle-flow momentum, e.g. a packed or composite candidate.
type OpaqueCandidate struct {
	Type string
}

func (c OpaqueCandidate) Kind() string { return c.Type }

// Status describes how a jet score was obtained.
type Status string

// Jet score statuses.
const (
	StatusOK                Status = "ok"
	StatusOracleFailure     Status = "oracle_failure"
	StatusExtractionFailure Status = "extraction_failure"
)

// JetScore is the discrimination result for one jet.
type JetScore struct {
	SignalProbability     float64
	BackgroundProbability float64
	Discriminant          float64
	Status                Status
	NMicrojets            int
}

// FailedScore returns a score whose three values carry the NaN sentinel.
func FailedScore(status Status) JetScore {
	nan := math.NaN()
	return JetScore{
		SignalProbability:     nan,
		BackgroundProbability: nan,
		Discriminant:          nan,
		Status:                status,
	}
}

// Failed reports whether the score carries the failure sentinel.
func (s JetScore) Failed() bool { return s.Status != StatusOK }

// EventResult holds the per-jet outputs for one event. Every slice has one
// entry per input jet, in input order.
type EventResult struct {
	EventID     string
	PSignal     []float64
	PBackground []float64
	Chi         []float64
	Status      []Status
	NMicrojets  []int
	JetPt       []float64
	JetEta      []float64
	JetPhi      []float64
	JetEnergy   []float64
	JetMass     []float64
}

// NewEventResult allocates aligned slices for n jets.
func NewEventResult(eventID string, n int) EventResult {
	return EventResult{
		EventID:     eventID,
		PSignal:     make([]float64, n),
		PBackground: make([]float64, n),
		Chi:         make([]float64, n),
		Status:      make([]Status, n),
		NMicrojets:  make([]int, n),
		JetPt:       make([]float64, n),
		JetEta:      make([]float64, n),
		JetPhi:      make([]float64, n),
		JetEnergy:   make([]float64, n),
		JetMass:     make([]float64, n),
	}
}

// Set writes jet i's kinematics and score into its fixed slot.
func (r *EventResult) Set(i int, jet Jet, score JetScore) { //nolint:gocritic // hugeParam: Jet is a read-only view
	r.PSignal[i] = score.SignalProbability
	r.PBackground[i] = score.BackgroundProbability
	r.Chi[i] = score.Discriminant
	r.Status[i] = score.Status
	r.NMicrojets[i] = score.NMicrojets
	r.JetPt[i] = jet.P4.Pt()
	r.JetEta[i] = jet.P4.Eta()
	r.JetPhi[i] = jet.P4.Phi()
	r.JetEnergy[i] = jet.P4.E()
	r.JetMass[i] = jet.P4.Mass()
}

// Len returns the number of jets in the result.
func (r EventResult) Len() int { return len(r.Chi) }

// Failures counts jets that carry the failure sentinel.
func (r EventResult) Failures() int {
	n := 0
	for _, s := range r.Status {
		if s != StatusOK {
			n++
		}
	}
	return n
}

// Outputs returns the published arrays keyed by their fixed names.
func (r EventResult) Outputs() map[string][]float64 {
	nMicro := make([]float64, len(r.NMicrojets))
	for i, n := range r.NMicrojets {
		nMicro[i] = float64(n)
	}
	return map[string][]float64{
		OutputPSignal:     r.PSignal,
		OutputPBackground: r.PBackground,
		OutputChi:         r.Chi,
		OutputNMicrojets:  nMicro,
		OutputJetPt:       r.JetPt,
		OutputJetEta:      r.JetEta,
		OutputJetPhi:      r.JetPhi,
		OutputJetEnergy:   r.JetEnergy,
		OutputJetMass:     r.JetMass,
	}
}
