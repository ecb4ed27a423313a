// Package constituents turns jet daughters into four-vectors for reclustering.
package constituents

import (
	"fmt"
	"math"

	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
)

// Extract returns one four-vector per daughter, in daughter order. It fails on
// the first daughter that does not expose particle-flow momentum; no daughter
// is ever dropped. Constituents are also rejected with ErrNonFiniteMomentum
// when their squared momenta, or those of any partial sum, would overflow.
func Extract(jet model.Jet) ([]kinematics.FourVector, error) { //nolint:gocritic // hugeParam: Jet is a read-only view
	out := make([]kinematics.FourVector, 0, len(jet.Daughters))
	var abs [4]float64
	for i, d := range jet.Daughters {
		p4, err := fourVector(i, d)
		if err != nil {
			return nil, err
		}
		if !p4.IsFinite() || !finiteSquares(p4.Px(), p4.Py(), p4.Pz(), p4.E()) {
			return nil, fmt.Errorf("daughter %d: %w", i, ErrNonFiniteMomentum)
		}
		abs[0] += math.Abs(p4.Px())
		abs[1] += math.Abs(p4.Py())
		abs[2] += math.Abs(p4.Pz())
		abs[3] += math.Abs(p4.E())
		out = append(out, p4)
	}
	// Component-wise absolute sums bound every recombination the clustering
	// can form.
	if !finiteSquares(abs[0], abs[1], abs[2], abs[3]) {
		return nil, fmt.Errorf("summed constituents: %w", ErrNonFiniteMomentum)
	}
	return out, nil
}

func finiteSquares(px, py, pz, e float64) bool {
	s := px*px + py*py + pz*pz + e*e
	return !math.IsInf(s, 0) && !math.IsNaN(s)
}

func fourVector(i int, d model.Daughter) (kinematics.FourVector, error) {
	if c, isPF := d.(*model.PFCandidate); d == nil || (isPF && c == nil) {
		return kinematics.FourVector{}, &UnsupportedRepresentationError{Index: i, Kind: "<nil>"}
	}
	pf, ok := d.(model.PFMomentum)
	if !ok {
		return kinematics.FourVector{}, &UnsupportedRepresentationError{Index: i, Kind: d.Kind()}
	}
	return kinematics.New(pf.Px(), pf.Py(), pf.Pz(), pf.Energy()), nil
}
