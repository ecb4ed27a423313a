// Package types contains read shapes shared by the store and the HTTP layer.
package types

import "strconv"

// Candidate is one scored jet in the discriminant ranking.
type Candidate struct {
	Rank        int     `json:"rank"`
	EventID     string  `json:"event_id"`
	JetIndex    int     `json:"jet_index"`
	Chi         float64 `json:"chi"`
	PSignal     float64 `json:"p_signal"`
	PBackground float64 `json:"p_background"`
	JetPt       float64 `json:"jet_pt"`
	JetMass     float64 `json:"jet_mass"`
}

// Key identifies the jet as "<event_id>/<jet_index>".
func (c Candidate) Key() string {
	return c.EventID + "/" + strconv.Itoa(c.JetIndex)
}
