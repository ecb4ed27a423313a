// Package oracle defines the discrimination oracle contract consumed by jet
// scoring, plus adapters that bound and harden individual calls.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/jettag/internal/domain/kinematics"
)

// Result is the oracle's verdict for one microjet configuration.
type Result struct {
	PSignal     float64
	PBackground float64
	Chi         float64
}

// Finite reports whether all three values are finite numbers.
func (r Result) Finite() bool {
	for _, v := range [3]float64{r.PSignal, r.PBackground, r.Chi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Oracle scores a microjet configuration against the signal and background
// hypotheses. Implementations are treated as pure functions of their input.
type Oracle interface {
	Score(ctx context.Context, microjets []kinematics.FourVector) (Result, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, microjets []kinematics.FourVector) (Result, error)

// Score calls f.
func (f Func) Score(ctx context.Context, microjets []kinematics.FourVector) (Result, error) {
	return f(ctx, microjets)
}

// Guard wraps o so that panics and non-finite results surface as errors
// matching ErrOracle.
func Guard(o Oracle) Oracle {
	return Func(func(ctx context.Context, microjets []kinematics.FourVector) (res Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				res, err = Result{}, fmt.Errorf("%w: panic: %v", ErrOracle, r)
			}
		}()

		res, err = o.Score(ctx, microjets)
		if err != nil {
			return Result{}, wrap(err)
		}
		if !res.Finite() {
			return Result{}, fmt.Errorf("%w: %w (psig=%v pbkg=%v chi=%v)",
				ErrOracle, ErrNonFinite, res.PSignal, res.PBackground, res.Chi)
		}
		return res, nil
	})
}

// WithTimeout bounds every call to o by d. Oracles that ignore their context
// keep running in the background until they return; their result is dropped.
func WithTimeout(o Oracle, d time.Duration) Oracle {
	if d <= 0 {
		return o
	}
	return Func(func(ctx context.Context, microjets []kinematics.FourVector) (Result, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type outcome struct {
			res Result
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := o.Score(ctx, microjets)
			done <- outcome{res: res, err: err}
		}()

		select {
		case out := <-done:
			return out.res, out.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Result{}, fmt.Errorf("%w: %w after %s", ErrOracle, ErrTimeout, d)
			}
			return Result{}, fmt.Errorf("%w: %w", ErrOracle, ctx.Err())
		}
	})
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOracle) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOracle, err)
}
