package microjet

import (
	"math"

	"github.com/okian/jettag/internal/domain/kinematics"
)

// pseudo is a clustering-sequence entry with cached geometry.
type pseudo struct {
	p4     kinematics.FourVector
	rap    float64
	phi    float64
	kt2    float64
	nn     int     // nearest active neighbour, -1 when none
	nnDist float64 // squared rapidity-phi distance to nn
	active bool
}

func newPseudo(p4 kinematics.FourVector) pseudo {
	return pseudo{
		p4:     p4,
		rap:    p4.Rapidity(),
		phi:    p4.Phi02Pi(),
		kt2:    p4.Pt2(),
		nn:     -1,
		nnDist: math.MaxFloat64,
		active: true,
	}
}

func (p *pseudo) distance(o *pseudo) float64 {
	return kinematics.DeltaR2(p.rap, p.phi, o.rap, o.phi)
}

// clusterKt runs kt sequential recombination with radius r
// and returns the inclusive jets in the order they reached the beam.
//
// dij = min(kt2i, kt2j) * dR2ij / r^2 and diB = kt2i. The smallest pairwise
// dij is always found between some entry and its geometric nearest
// neighbour, so only nearest neighbours are tracked.
func clusterKt(particles []kinematics.FourVector, r float64) []kinematics.FourVector {
	n := len(particles)
	if n == 0 {
		return nil
	}

	invR2 := 1 / (r * r)
	jets := make([]pseudo, n)
	for i, p := range particles {
		jets[i] = newPseudo(p)
	}
	for i := range jets {
		updateNN(jets, i)
	}

	inclusive := make([]kinematics.FourVector, 0, n)
	for remaining := n; remaining > 0; remaining-- {
		best, beam := -1, true
		bestDist := math.MaxFloat64
		for i := range jets {
			if !jets[i].active {
				continue
			}
			// The first active entry always seeds the choice so that
			// infinite or NaN distances cannot leave it unset.
			if d := jets[i].kt2; best < 0 || d < bestDist {
				best, beam, bestDist = i, true, d
			}
			if nn := jets[i].nn; nn >= 0 {
				d := math.Min(jets[i].kt2, jets[nn].kt2) * jets[i].nnDist * invR2
				if d < bestDist {
					best, beam, bestDist = i, false, d
				}
			}
		}

		if beam {
			inclusive = append(inclusive, jets[best].p4)
			jets[best].active = false
			refreshAfterRemoval(jets, best, -1)
			continue
		}

		i, j := best, jets[best].nn
		if j < i {
			i, j = j, i
		}
		jets[i] = newPseudo(jets[i].p4.Add(jets[j].p4))
		jets[j].active = false
		refreshAfterRemoval(jets, i, j)
	}
	return inclusive
}

// refreshAfterRemoval repairs nearest-neighbour links after slot a was
// replaced (or removed) and slot b removed.
func refreshAfterRemoval(jets []pseudo, a, b int) {
	if jets[a].active {
		updateNN(jets, a)
	}
	for k := range jets {
		if !jets[k].active || k == a {
			continue
		}
		if jets[k].nn == a || (b >= 0 && jets[k].nn == b) {
			updateNN(jets, k)
			continue
		}
		if jets[a].active {
			if d := jets[k].distance(&jets[a]); d < jets[k].nnDist {
				jets[k].nn, jets[k].nnDist = a, d
			}
		}
	}
}

func updateNN(jets []pseudo, i int) {
	jets[i].nn, jets[i].nnDist = -1, math.MaxFloat64
	for k := range jets {
		if k == i || !jets[k].active {
			continue
		}
		if d := jets[i].distance(&jets[k]); d < jets[i].nnDist {
			jets[i].nn, jets[i].nnDist = k, d
		}
	}
}
