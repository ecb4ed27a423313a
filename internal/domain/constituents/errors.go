package constituents

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRepresentation marks a daughter that cannot be read as a
// particle-flow four-momentum source.
var ErrUnsupportedRepresentation = errors.New("unsupported daughter representation")

// ErrNonFiniteMomentum marks constituents whose momenta, or any sum of them
// formed while reclustering, cannot be represented as finite numbers.
var ErrNonFiniteMomentum = errors.New("non-finite constituent momentum")

// UnsupportedRepresentationError identifies the offending daughter.
type UnsupportedRepresentationError struct {
	Index int    // position of the daughter within the jet
	Kind  string // daughter kind as reported by the event
}

func (e *UnsupportedRepresentationError) Error() string {
	return fmt.Sprintf("daughter %d of kind %q: %v", e.Index, e.Kind, ErrUnsupportedRepresentation)
}

// Unwrap allows errors.Is(err, ErrUnsupportedRepresentation).
func (e *UnsupportedRepresentationError) Unwrap() error { return ErrUnsupportedRepresentation }
