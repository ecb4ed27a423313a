// Package repository keeps recently published event results and ranks their
// jets by discriminant.
package repository

import (
	"context"

	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/types"
)

// Candidate is one successfully scored jet in the discriminant ranking.
type Candidate = types.Candidate

// Store provides read/write access to published results.
type Store interface {
	// Publish stores a result. A result whose event id is already stored
	// is rejected with ErrDuplicate.
	Publish(ctx context.Context, result model.EventResult) error

	// Get returns the result of one event, or ErrNotFound.
	Get(ctx context.Context, eventID string) (model.EventResult, error)

	// TopJets returns the n most signal-like stored jets ordered by chi desc.
	TopJets(ctx context.Context, n int) ([]Candidate, error)

	// Count returns the number of stored event results.
	Count(ctx context.Context) int
}
