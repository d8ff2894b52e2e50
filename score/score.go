// SPDX-License-Identifier: MIT

// Package score implements nonconformity scores and their inverse, the
// interval construction used at prediction time.
//
// Two policies are provided:
//
//	SignError           score = |ŷ − y|                     interval = [ŷ − q, ŷ + q]
//	AsymmetricQuantile  score = max(ŷ_lo − y, y − ŷ_hi)     interval = [ŷ_lo − q, ŷ_hi + q]
//
// Consistency: for any prediction p and response y, Interval(p, Score(p, y))
// contains y, with y on one of its ends up to rounding. Every response whose
// score is at most the threshold falls inside. Endpoints are padded outward by
// a few ulps because ŷ − q does not round back to y exactly.
//
// Every scorer also exposes one-sided ("sided") scores. They let the lower
// and upper ends be calibrated separately, each at α/2.
package score

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/eqconformal/estimator"
)

// Scorer computes nonconformity scores from a model prediction and maps a
// threshold back to an interval.
type Scorer interface {
	// Name is the policy identifier.
	Name() string

	// Kind is the model kind the scorer reads predictions from.
	Kind() estimator.Kind

	// Score is the symmetric nonconformity of y under p.
	Score(p estimator.Prediction, y float64) float64

	// Interval inverts Score for threshold q.
	Interval(p estimator.Prediction, q float64) (lo, hi float64)

	// Sided returns separate lower-end and upper-end scores.
	Sided(p estimator.Prediction, y float64) (low, high float64)

	// SidedInterval inverts Sided for thresholds (qLow, qHigh).
	SidedInterval(p estimator.Prediction, qLow, qHigh float64) (lo, hi float64)
}

// SignError scores a point prediction by its residual. Signed keeps the sign
// (ŷ − y). Score takes the absolute value for symmetric intervals.
// Sided splits the residual by direction for asymmetric corrections.
type SignError struct{}

// Name implements Scorer.
func (SignError) Name() string { return PolicySignError.String() }

// Kind implements Scorer.
func (SignError) Kind() estimator.Kind { return estimator.Point }

// Signed returns ŷ − y.
func (SignError) Signed(p estimator.Prediction, y float64) float64 { return p.Point - y }

// Score returns |ŷ − y|.
func (s SignError) Score(p estimator.Prediction, y float64) float64 {
	v := s.Signed(p, y)
	if v < 0 {
		return -v
	}

	return v
}

// Interval returns [ŷ − q, ŷ + q].
func (SignError) Interval(p estimator.Prediction, q float64) (lo, hi float64) {
	return ordered(below(p.Point, q), above(p.Point, q))
}

// Sided returns (ŷ − y, y − ŷ): the lower end needs ŷ − qLow ≤ y, the upper end y ≤ ŷ + qHigh.
func (SignError) Sided(p estimator.Prediction, y float64) (low, high float64) {
	return p.Point - y, y - p.Point
}

// SidedInterval returns [ŷ − qLow, ŷ + qHigh].
func (SignError) SidedInterval(p estimator.Prediction, qLow, qHigh float64) (lo, hi float64) {
	return ordered(below(p.Point, qLow), above(p.Point, qHigh))
}

// AsymmetricQuantile is the CQR score for a quantile model: positive
// when y falls outside [ŷ_lo, ŷ_hi], negative inside (minus the distance to the
// nearest bound).
type AsymmetricQuantile struct{}

// Name implements Scorer.
func (AsymmetricQuantile) Name() string { return PolicyAsymmetricQuantile.String() }

// Kind implements Scorer.
func (AsymmetricQuantile) Kind() estimator.Kind { return estimator.Quantile }

// Score returns max(ŷ_lo − y, y − ŷ_hi).
func (AsymmetricQuantile) Score(p estimator.Prediction, y float64) float64 {
	return max(p.Low-y, y-p.High)
}

// Interval returns [ŷ_lo − q, ŷ_hi + q].
func (AsymmetricQuantile) Interval(p estimator.Prediction, q float64) (lo, hi float64) {
	return ordered(below(p.Low, q), above(p.High, q))
}

// Sided returns (ŷ_lo − y, y − ŷ_hi).
func (AsymmetricQuantile) Sided(p estimator.Prediction, y float64) (low, high float64) {
	return p.Low - y, y - p.High
}

// SidedInterval returns [ŷ_lo − qLow, ŷ_hi + qHigh].
func (AsymmetricQuantile) SidedInterval(p estimator.Prediction, qLow, qHigh float64) (lo, hi float64) {
	return ordered(below(p.Low, qLow), above(p.High, qHigh))
}

// boundaryPad is the relative outward padding of an endpoint, 4 ulps of |ref| + |q|.
// A response y with fl(ref − y) ≤ q is at most about one ulp of q below ref − q,
// and computing ref − q itself rounds by half an ulp.
const boundaryPad = 0x1p-50

func pad(ref, q float64) float64 { return (math.Abs(ref) + math.Abs(q)) * boundaryPad }

// below returns ref − q rounded outward.
func below(ref, q float64) float64 { return ref - q - pad(ref, q) }

// above returns ref + q rounded outward.
func above(ref, q float64) float64 { return ref + q + pad(ref, q) }

// ordered enforces lo ≤ hi. A negative threshold can shrink a quantile band
// past itself; the band then collapses to its midpoint.
func ordered(lo, hi float64) (float64, float64) {
	if lo > hi {
		mid := 0.5 * (lo + hi)

		return mid, mid
	}

	return lo, hi
}

// ---------- Policy ----------

// Policy names a scoring scheme.
type Policy int

const (
	// PolicySignError selects SignError (point models).
	PolicySignError Policy = iota
	// PolicyAsymmetricQuantile selects AsymmetricQuantile (quantile models, CQR).
	PolicyAsymmetricQuantile
)

// ErrUnknownPolicy is returned for an unrecognized policy value or name.
var ErrUnknownPolicy = errors.New("score: unknown scoring policy")

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicySignError:
		return "sign-error"
	case PolicyAsymmetricQuantile:
		return "asymmetric-quantile"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "sign-error" or "asymmetric-quantile" (case-insensitive;
// "cqr" is an alias for the latter).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sign-error", "sign", "absolute":
		return PolicySignError, nil
	case "asymmetric-quantile", "quantile", "cqr":
		return PolicyAsymmetricQuantile, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// ForPolicy returns the Scorer implementing p.
func ForPolicy(p Policy) (Scorer, error) {
	switch p {
	case PolicySignError:
		return SignError{}, nil
	case PolicyAsymmetricQuantile:
		return AsymmetricQuantile{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, p)
	}
}

// ScoreAll applies s.Score to model predictions for every row of rows.
func ScoreAll(s Scorer, m estimator.Model, rows [][]float64, y []float64) ([]float64, error) {
	if len(rows) != len(y) {
		return nil, fmt.Errorf("score.ScoreAll: %d rows, %d responses: %w", len(rows), len(y), estimator.ErrDimensionMismatch)
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("score.ScoreAll: row %d: %w", i, err)
		}
		out[i] = s.Score(p, y[i])
	}

	return out, nil
}
