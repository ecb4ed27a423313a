// Package kinematics provides the four-momentum value type shared by the
// extraction, reclustering and scoring stages.
package kinematics

import "math"

// MaxRapidity is assigned to massless particles travelling along the beam
// axis, where rapidity diverges.
const MaxRapidity = 1e5

const twoPi = 2 * math.Pi

// FourVector is an immutable (px, py, pz, E) four-momentum.
type FourVector struct {
	px, py, pz, e float64
}

// New returns the four-vector with the given Cartesian components.
func New(px, py, pz, e float64) FourVector {
	return FourVector{px: px, py: py, pz: pz, e: e}
}

// FromPtEtaPhiE builds a four-vector from collider coordinates.
func FromPtEtaPhiE(pt, eta, phi, e float64) FourVector {
	return FourVector{
		px: pt * math.Cos(phi),
		py: pt * math.Sin(phi),
		pz: pt * math.Sinh(eta),
		e:  e,
	}
}

// FromPtEtaPhiM builds a four-vector from collider coordinates and a mass.
func FromPtEtaPhiM(pt, eta, phi, m float64) FourVector {
	pz := pt * math.Sinh(eta)
	e := math.Sqrt(pt*pt + pz*pz + m*m)
	return FromPtEtaPhiE(pt, eta, phi, e)
}

func (v FourVector) Px() float64 { return v.px }
func (v FourVector) Py() float64 { return v.py }
func (v FourVector) Pz() float64 { return v.pz }
func (v FourVector) E() float64  { return v.e }

// Pt2 is the squared transverse momentum.
func (v FourVector) Pt2() float64 { return v.px*v.px + v.py*v.py }

// Pt is the transverse momentum.
func (v FourVector) Pt() float64 { return math.Sqrt(v.Pt2()) }

// M2 is the squared invariant mass; it may be negative for off-shell inputs.
func (v FourVector) M2() float64 {
	return v.e*v.e - v.px*v.px - v.py*v.py - v.pz*v.pz
}

// Mass returns the invariant mass, negative when M2 is negative.
func (v FourVector) Mass() float64 {
	m2 := v.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// Phi returns the azimuth in (-pi, pi].
func (v FourVector) Phi() float64 {
	if v.px == 0 && v.py == 0 {
		return 0
	}
	return math.Atan2(v.py, v.px)
}

// Phi02Pi returns the azimuth in [0, 2pi), the convention used for
// recombination distances.
func (v FourVector) Phi02Pi() float64 {
	phi := v.Phi()
	if phi < 0 {
		phi += twoPi
	}
	if phi >= twoPi {
		phi -= twoPi
	}
	return phi
}

// Eta returns the pseudorapidity.
func (v FourVector) Eta() float64 {
	pt := v.Pt()
	if pt == 0 {
		switch {
		case v.pz > 0:
			return MaxRapidity
		case v.pz < 0:
			return -MaxRapidity
		default:
			return 0
		}
	}
	return math.Asinh(v.pz / pt)
}

// Rapidity returns the true rapidity, clamped to +-MaxRapidity (offset by
// |pz|) for massless particles along the beam.
func (v FourVector) Rapidity() float64 {
	pt2 := v.Pt2()
	absPz := math.Abs(v.pz)
	if v.e == absPz && pt2 == 0 {
		rap := MaxRapidity + absPz
		if v.pz < 0 {
			rap = -rap
		}
		return rap
	}
	m2 := math.Max(0, v.M2())
	ePlusPz := v.e + absPz
	rap := 0.5 * math.Log((pt2+m2)/(ePlusPz*ePlusPz))
	if v.pz > 0 {
		rap = -rap
	}
	return rap
}

// Add returns the E-scheme sum of two four-vectors.
func (v FourVector) Add(o FourVector) FourVector {
	return FourVector{px: v.px + o.px, py: v.py + o.py, pz: v.pz + o.pz, e: v.e + o.e}
}

// DeltaR2 is the squared rapidity-azimuth distance between two four-vectors.
func (v FourVector) DeltaR2(o FourVector) float64 {
	return DeltaR2(v.Rapidity(), v.Phi02Pi(), o.Rapidity(), o.Phi02Pi())
}

// DeltaR2 computes the squared distance between two (rapidity, phi) points,
// with phi values in [0, 2pi).
func DeltaR2(rap1, phi1, rap2, phi2 float64) float64 {
	dphi := math.Abs(phi1 - phi2)
	if dphi > math.Pi {
		dphi = twoPi - dphi
	}
	drap := rap1 - rap2
	return drap*drap + dphi*dphi
}

// IsFinite reports whether every component is a finite number.
func (v FourVector) IsFinite() bool {
	for _, c := range [4]float64{v.px, v.py, v.pz, v.e} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
