// Package microjet reclusters jet constituents into a bounded set of
// small-radius microjets.
package microjet

import (
	"slices"

	"github.com/okian/jettag/internal/domain/kinematics"
)

// Default reclustering configuration constants.
const (
	DefaultConeSize     = 0.2
	DefaultMinPt        = 20.0
	DefaultMaxMicrojets = 7
)

// Result describes one reclustering.
type Result struct {
	// Microjets are ordered by descending transverse momentum.
	Microjets []kinematics.FourVector
	// Inclusive is the number of microjets above threshold before truncation.
	Inclusive int
}

// Truncated reports whether microjets were dropped by the cap.
func (r Result) Truncated() bool { return r.Inclusive > len(r.Microjets) }

// Builder reclusters constituents with the kt algorithm.
type Builder struct {
	coneSize     float64
	minPt        float64
	maxMicrojets int
}

// NewBuilder creates a builder with configuration options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		coneSize:     DefaultConeSize,
		minPt:        DefaultMinPt,
		maxMicrojets: DefaultMaxMicrojets,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ConeSize returns the configured radius.
func (b *Builder) ConeSize() float64 { return b.coneSize }

// MinPt returns the configured threshold.
func (b *Builder) MinPt() float64 { return b.minPt }

// MaxMicrojets returns the configured cap.
func (b *Builder) MaxMicrojets() int { return b.maxMicrojets }

// Build returns at most MaxMicrojets microjets above MinPt, hardest first.
// An empty constituent sequence yields an empty result.
func (b *Builder) Build(constituents []kinematics.FourVector) []kinematics.FourVector {
	return b.BuildDetailed(constituents).Microjets
}

// BuildDetailed is Build that also reports the pre-truncation count.
func (b *Builder) BuildDetailed(constituents []kinematics.FourVector) Result {
	inclusive := clusterKt(constituents, b.coneSize)

	minPt2 := b.minPt * b.minPt
	kept := make([]kinematics.FourVector, 0, len(inclusive))
	for _, j := range inclusive {
		if j.Pt2() >= minPt2 {
			kept = append(kept, j)
		}
	}

	slices.SortStableFunc(kept, func(a, b kinematics.FourVector) int {
		switch pa, pb := a.Pt2(), b.Pt2(); {
		case pa > pb:
			return -1
		case pa < pb:
			return 1
		default:
			return 0
		}
	})

	res := Result{Microjets: kept, Inclusive: len(kept)}
	if len(kept) > b.maxMicrojets {
		res.Microjets = kept[:b.maxMicrojets:b.maxMicrojets]
	}
	return res
}
