// Package scoring turns one jet into a shower deconstruction score.
package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/okian/jettag/internal/domain/constituents"
	"github.com/okian/jettag/internal/domain/microjet"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/oracle"
	"github.com/okian/jettag/pkg/logger"
	"github.com/okian/jettag/pkg/metrics"
)

// JetScorer extracts constituents, reclusters them into microjets and asks
// the oracle for a verdict. It is safe for concurrent use when the wrapped
// oracle is.
type JetScorer struct {
	oracle  oracle.Oracle
	builder *microjet.Builder
	timeout time.Duration
	logger  logger.Logger
}

// New creates a scorer around o. The oracle is always wrapped with Guard,
// so a panicking or non-finite oracle only fails the jet it was called for.
func New(o oracle.Oracle, opts ...Option) *JetScorer {
	s := &JetScorer{
		builder: microjet.NewBuilder(),
		logger:  logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.oracle = oracle.Guard(oracle.WithTimeout(o, s.timeout))
	return s
}

// Builder returns the microjet builder in use.
func (s *JetScorer) Builder() *microjet.Builder { return s.builder }

// Score computes the score of the jet at position index in its collection.
// Failures never escape: the returned score carries the NaN sentinel and a
// failure status instead.
func (s *JetScorer) Score(ctx context.Context, index int, jet model.Jet) model.JetScore { //nolint:gocritic // hugeParam: Jet is a read-only view
	parts, err := constituents.Extract(jet)
	if err != nil {
		var unsupported *constituents.UnsupportedRepresentationError
		fields := []logger.Field{
			logger.Int("jet_index", index),
			logger.Int("daughters", len(jet.Daughters)),
			logger.Error(err),
		}
		if errors.As(err, &unsupported) {
			fields = append(fields, logger.Int("daughter_index", unsupported.Index), logger.String("daughter_kind", unsupported.Kind))
		}
		s.logger.Error(ctx, "constituent extraction failed", fields...)
		metrics.RecordJetScored(string(model.StatusExtractionFailure))
		metrics.RecordErrorByComponent("scoring", "extraction_failure")
		return model.FailedScore(model.StatusExtractionFailure)
	}
	metrics.RecordConstituentCount(len(parts))

	built := s.builder.BuildDetailed(parts)
	metrics.RecordMicrojetCount(len(built.Microjets))
	if built.Truncated() {
		metrics.RecordMicrojetTruncation()
		s.logger.Debug(ctx, "microjets truncated",
			logger.Int("jet_index", index),
			logger.Int("inclusive", built.Inclusive),
			logger.Int("kept", len(built.Microjets)),
		)
	}

	score := model.FailedScore(model.StatusOracleFailure)
	score.NMicrojets = len(built.Microjets)

	start := time.Now()
	res, err := s.oracle.Score(ctx, built.Microjets)
	metrics.RecordOracleLatency(float64(time.Since(start).Microseconds()) / 1e3)
	if err != nil {
		s.logger.Warn(ctx, "shower deconstruction failed",
			logger.Int("jet_index", index),
			logger.Int("constituents", len(parts)),
			logger.Int("microjets", len(built.Microjets)),
			logger.Error(err),
		)
		metrics.RecordJetScored(string(model.StatusOracleFailure))
		metrics.RecordErrorByComponent("oracle", oracleErrorType(err))
		return score
	}

	score.SignalProbability = res.PSignal
	score.BackgroundProbability = res.PBackground
	score.Discriminant = res.Chi
	score.Status = model.StatusOK
	s.logger.Debug(ctx, "jet scored",
		logger.Int("jet_index", index),
		logger.Float64("psig", res.PSignal),
		logger.Float64("pbkg", res.PBackground),
		logger.Float64("chi", res.Chi),
	)
	metrics.RecordJetScored(string(model.StatusOK))
	return score
}

func oracleErrorType(err error) string {
	switch {
	case errors.Is(err, oracle.ErrTimeout):
		return "timeout"
	case errors.Is(err, oracle.ErrNonFinite):
		return "non_finite"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "oracle_error"
	}
}
