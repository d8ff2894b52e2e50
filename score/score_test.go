// SPDX-License-Identifier: MIT

package score_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eqconformal/estimator"
	"github.com/katalvlaran/eqconformal/score"
)

func TestSignError_ScoreAndInterval(t *testing.T) {
	t.Parallel()

	s := score.SignError{}
	p := estimator.Prediction{Point: 2, Low: 2, High: 2}

	assert.Equal(t, -1.0, s.Signed(p, 3))
	assert.Equal(t, 1.0, s.Score(p, 3))
	assert.Equal(t, 1.0, s.Score(p, 1))

	lo, hi := s.Interval(p, 1.5)
	assert.InDelta(t, 0.5, lo, 1e-12)
	assert.InDelta(t, 3.5, hi, 1e-12)
	assert.Less(t, lo, 0.5, "endpoints are padded outward")
	assert.Greater(t, hi, 3.5, "endpoints are padded outward")

	low, high := s.Sided(p, 3)
	assert.Equal(t, -1.0, low)
	assert.Equal(t, 1.0, high)

	lo, hi = s.SidedInterval(p, 0.5, 2)
	assert.InDelta(t, 1.5, lo, 1e-12)
	assert.InDelta(t, 4.0, hi, 1e-12)
	assert.Equal(t, estimator.Point, s.Kind())
	assert.Equal(t, "sign-error", s.Name())
}

func TestAsymmetricQuantile_ScoreAndInterval(t *testing.T) {
	t.Parallel()

	s := score.AsymmetricQuantile{}
	p := estimator.Prediction{Point: 1, Low: 0, High: 2}

	tests := []struct {
		name string
		y    float64
		want float64
	}{
		{"inside near low", 0.5, -0.5},
		{"center", 1, -1},
		{"below", -1, 1},
		{"above", 4, 2},
		{"on boundary", 2, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, s.Score(p, tc.y), tc.name)
	}

	lo, hi := s.Interval(p, 0.25)
	assert.InDelta(t, -0.25, lo, 1e-12)
	assert.InDelta(t, 2.25, hi, 1e-12)

	// A negative threshold larger than half the band collapses to the midpoint.
	lo, hi = s.Interval(p, -3)
	assert.InDelta(t, 1.0, lo, 1e-12)
	assert.Equal(t, lo, hi)
	assert.Equal(t, estimator.Quantile, s.Kind())
}

func TestScorers_BoundaryConsistency(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(11, 12))
	scorers := []score.Scorer{score.SignError{}, score.AsymmetricQuantile{}}
	for _, s := range scorers {
		t.Run(s.Name(), func(t *testing.T) {
			for k := 0; k < 500; k++ {
				a, b := rng.NormFloat64()*3, rng.NormFloat64()*3
				if a > b {
					a, b = b, a
				}
				p := estimator.Prediction{Point: 0.5 * (a + b), Low: a, High: b}
				if s.Kind() == estimator.Point {
					p.Low, p.High = p.Point, p.Point
				}
				y := rng.NormFloat64() * 5

				q := s.Score(p, y)
				lo, hi := s.Interval(p, q)
				require.LessOrEqual(t, lo, hi)
				assert.True(t, y >= lo && y <= hi, "y=%v not in [%v, %v]", y, lo, hi)
				onEdge := absDiff(y, lo) < 1e-9 || absDiff(y, hi) < 1e-9
				assert.True(t, onEdge, "y=%v should sit on a boundary of [%v, %v]", y, lo, hi)

				// Sided scores: y sits inside the interval built from its own sided scores.
				sl, sh := s.Sided(p, y)
				lo, hi = s.SidedInterval(p, max(sl, sh), max(sl, sh))
				assert.True(t, y >= lo && y <= hi, "sided: y=%v not in [%v, %v]", y, lo, hi)
			}
		})
	}
}

// Responses whose score equals the threshold must be contained even where
// ŷ − (ŷ − y) rounds away from y. The cases are drawn at large offsets and
// awkward magnitudes where that rounding happens.
func TestScorers_ContainsAtThreshold(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(21, 22))
	scorers := []score.Scorer{score.SignError{}, score.AsymmetricQuantile{}}
	for _, s := range scorers {
		t.Run(s.Name(), func(t *testing.T) {
			misses := 0
			for k := 0; k < 20000; k++ {
				scale := math.Ldexp(1, rng.IntN(40)-20)
				a := rng.NormFloat64() * scale
				b := a + math.Abs(rng.NormFloat64())*scale
				p := estimator.Prediction{Point: a, Low: a, High: b}
				if s.Kind() == estimator.Point {
					p.High = a
				}
				y := a + rng.NormFloat64()*scale*rng.Float64()

				lo, hi := s.Interval(p, s.Score(p, y))
				if y < lo || y > hi {
					misses++
				}
				sl, sh := s.Sided(p, y)
				lo, hi = s.SidedInterval(p, sl, sh)
				if y < lo || y > hi {
					misses++
				}
			}
			assert.Zero(t, misses)
		})
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}

	return b - a
}

func TestPolicy_ParseAndLookup(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"sign-error", "SIGN", " absolute "} {
		p, err := score.ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, score.PolicySignError, p)
	}
	for _, in := range []string{"asymmetric-quantile", "cqr", "Quantile"} {
		p, err := score.ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, score.PolicyAsymmetricQuantile, p)
	}
	_, err := score.ParsePolicy("conformity")
	assert.ErrorIs(t, err, score.ErrUnknownPolicy)

	s, err := score.ForPolicy(score.PolicyAsymmetricQuantile)
	require.NoError(t, err)
	assert.Equal(t, "asymmetric-quantile", s.Name())
	_, err = score.ForPolicy(score.Policy(42))
	assert.ErrorIs(t, err, score.ErrUnknownPolicy)
	assert.Equal(t, "policy(42)", score.Policy(42).String())
}

type constModel struct{ v float64 }

func (c constModel) Predict([]float64) (estimator.Prediction, error) {
	return estimator.Prediction{Point: c.v, Low: c.v, High: c.v}, nil
}
func (constModel) Kind() estimator.Kind { return estimator.Point }

func TestScoreAll(t *testing.T) {
	t.Parallel()

	got, err := score.ScoreAll(score.SignError{}, constModel{v: 1}, [][]float64{{0}, {0}, {0}}, []float64{0, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 2}, got)

	_, err = score.ScoreAll(score.SignError{}, constModel{}, [][]float64{{0}}, nil)
	assert.ErrorIs(t, err, estimator.ErrDimensionMismatch)
}
