package testevents

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
)

// Generator shape parameters.
const (
	minJetPt      = 200.0
	jetPtRange    = 600.0
	maxJetEta     = 2.0
	prongSpread   = 0.5 // max prong distance from the jet axis
	softParticles = 6
	softPtMax     = 5.0
	topFraction   = 0.5
)

// generator builds synthetic events. Top-like jets carry three hard prongs,
// QCD-like jets one hard core; both get a soft spray that reclusters below
// the microjet threshold.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *generator) events(n, jetsPerEvent int, collection string) []model.Event {
	out := make([]model.Event, n)
	now := time.Now().UTC()
	for i := range out {
		jets := make([]model.Jet, jetsPerEvent)
		for j := range jets {
			jets[j] = g.jet(g.rng.Float64() < topFraction)
		}
		out[i] = model.Event{
			EventID:     uuid.NewString(),
			Run:         1,
			Lumi:        uint64(i/100 + 1),
			Number:      uint64(i + 1),
			TS:          now,
			Collections: map[string][]model.Jet{collection: jets},
		}
	}
	return out
}

func (g *generator) jet(topLike bool) model.Jet {
	pt := minJetPt + g.rng.Float64()*jetPtRange
	eta := (2*g.rng.Float64() - 1) * maxJetEta
	phi := g.rng.Float64() * 2 * math.Pi

	fractions := []float64{1}
	if topLike {
		fractions = []float64{0.5, 0.3, 0.2}
	}

	var daughters []model.Daughter
	p4 := kinematics.New(0, 0, 0, 0)
	add := func(c *model.PFCandidate) {
		daughters = append(daughters, c)
		p4 = p4.Add(c.P4)
	}
	for _, f := range fractions {
		dEta, dPhi := 0.0, 0.0
		if len(fractions) > 1 {
			dEta = (2*g.rng.Float64() - 1) * prongSpread
			dPhi = (2*g.rng.Float64() - 1) * prongSpread
		}
		add(g.particle(f*pt*0.95, eta+dEta, phi+dPhi))
	}
	for range softParticles {
		add(g.particle(
			g.rng.Float64()*softPtMax,
			eta+(2*g.rng.Float64()-1)*0.8,
			phi+(2*g.rng.Float64()-1)*0.8,
		))
	}
	return model.Jet{P4: p4, Daughters: daughters}
}

func (g *generator) particle(pt, eta, phi float64) *model.PFCandidate {
	pdg := []int{211, -211, 22, 130}[g.rng.IntN(4)]
	charge := 0
	switch pdg {
	case 211:
		charge = 1
	case -211:
		charge = -1
	}
	return &model.PFCandidate{PdgID: pdg, Charge: charge, P4: kinematics.FromPtEtaPhiM(pt, eta, phi, 0)}
}
