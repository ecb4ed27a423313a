// Package eventfile defines the JSON wire format for events and per-event
// results, and reads and writes them as JSON lines.
package eventfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
)

// EventRecord is the wire shape of one event.
type EventRecord struct {
	EventID     string                 `json:"event_id"`
	Run         uint64                 `json:"run,omitempty"`
	Lumi        uint64                 `json:"lumi,omitempty"`
	Number      uint64                 `json:"number,omitempty"`
	TS          time.Time              `json:"ts,omitzero"`
	Collections map[string][]JetRecord `json:"collections"`
}

// JetRecord is the wire shape of one jet.
type JetRecord struct {
	Px        float64          `json:"px"`
	Py        float64          `json:"py"`
	Pz        float64          `json:"pz"`
	E         float64          `json:"e"`
	Daughters []DaughterRecord `json:"daughters"`
}

// DaughterRecord is the wire shape of one jet constituent. Kind defaults to
// particle flow; any other kind is kept as an opaque candidate without
// momentum.
type DaughterRecord struct {
	Kind   string  `json:"kind,omitempty"`
	PdgID  int     `json:"pdg_id,omitempty"`
	Charge int     `json:"charge,omitempty"`
	Px     float64 `json:"px,omitempty"`
	Py     float64 `json:"py,omitempty"`
	Pz     float64 `json:"pz,omitempty"`
	E      float64 `json:"e,omitempty"`
}

// ToEvent converts the record into a domain event.
func (r *EventRecord) ToEvent() (model.Event, error) {
	event := model.Event{
		EventID:     r.EventID,
		Run:         r.Run,
		Lumi:        r.Lumi,
		Number:      r.Number,
		TS:          r.TS,
		Collections: make(map[string][]model.Jet, len(r.Collections)),
	}
	for label, jets := range r.Collections {
		out := make([]model.Jet, len(jets))
		for i, jr := range jets {
			jet, err := jr.toJet()
			if err != nil {
				return model.Event{}, fmt.Errorf("%w: collection %q jet %d: %w", ErrInvalidRecord, label, i, err)
			}
			out[i] = jet
		}
		event.Collections[label] = out
	}
	return event, nil
}

func (jr *JetRecord) toJet() (model.Jet, error) {
	p4 := kinematics.New(jr.Px, jr.Py, jr.Pz, jr.E)
	if !p4.IsFinite() {
		return model.Jet{}, fmt.Errorf("non-finite jet momentum")
	}
	jet := model.Jet{P4: p4, Daughters: make([]model.Daughter, len(jr.Daughters))}
	for i, d := range jr.Daughters {
		kind := d.Kind
		if kind == "" {
			kind = model.KindPF
		}
		if kind != model.KindPF {
			jet.Daughters[i] = model.OpaqueCandidate{Type: kind}
			continue
		}
		dp4 := kinematics.New(d.Px, d.Py, d.Pz, d.E)
		if !dp4.IsFinite() {
			return model.Jet{}, fmt.Errorf("daughter %d: non-finite momentum", i)
		}
		jet.Daughters[i] = &model.PFCandidate{PdgID: d.PdgID, Charge: d.Charge, P4: dp4}
	}
	return jet, nil
}

// FromEvent converts a domain event into its wire shape.
func FromEvent(e *model.Event) EventRecord {
	rec := EventRecord{
		EventID:     e.EventID,
		Run:         e.Run,
		Lumi:        e.Lumi,
		Number:      e.Number,
		TS:          e.TS,
		Collections: make(map[string][]JetRecord, len(e.Collections)),
	}
	for label, jets := range e.Collections {
		out := make([]JetRecord, len(jets))
		for i, jet := range jets {
			jr := JetRecord{
				Px:        jet.P4.Px(),
				Py:        jet.P4.Py(),
				Pz:        jet.P4.Pz(),
				E:         jet.P4.E(),
				Daughters: make([]DaughterRecord, len(jet.Daughters)),
			}
			for j, d := range jet.Daughters {
				dr := DaughterRecord{Kind: d.Kind()}
				if pf, ok := d.(*model.PFCandidate); ok {
					dr.PdgID = pf.PdgID
					dr.Charge = pf.Charge
				}
				if m, ok := d.(model.PFMomentum); ok {
					dr.Px, dr.Py, dr.Pz, dr.E = m.Px(), m.Py(), m.Pz(), m.Energy()
				}
				jr.Daughters[j] = dr
			}
			out[i] = jr
		}
		rec.Collections[label] = out
	}
	return rec
}

// Number is a float64 whose NaN value travels as JSON null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// ResultRecord is the wire shape of one event's tagging result. Outputs are
// keyed by the fixed array names and aligned with the input jets.
type ResultRecord struct {
	EventID string              `json:"event_id"`
	Outputs map[string][]Number `json:"outputs"`
	Status  []model.Status      `json:"status"`
}

// FromResult converts a domain result into its wire shape.
func FromResult(r *model.EventResult) ResultRecord {
	rec := ResultRecord{
		EventID: r.EventID,
		Outputs: make(map[string][]Number, len(model.OutputNames)),
		Status:  append([]model.Status(nil), r.Status...),
	}
	for name, values := range r.Outputs() {
		nums := make([]Number, len(values))
		for i, v := range values {
			nums[i] = Number(v)
		}
		rec.Outputs[name] = nums
	}
	return rec
}

// Len returns the number of jets in the record.
func (r *ResultRecord) Len() int { return len(r.Status) }

// Value returns output name at jet index i, NaN when absent.
func (r *ResultRecord) Value(name string, i int) float64 {
	values, ok := r.Outputs[name]
	if !ok || i < 0 || i >= len(values) {
		return math.NaN()
	}
	return float64(values[i])
}
