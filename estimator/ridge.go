// SPDX-License-Identifier: MIT

package estimator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Ridge is closed-form ridge regression on standardized features:
//
//	w = (XᵀX + λ·n·I)⁻¹ Xᵀy,   b = 0 on the centered response.
//
// Model selection: every λ in the grid is solved on the training rows
// (Cholesky factorization) and scored by held-out MSE. The best solution is kept.
// Fit is deterministic apart from the held-out split drawn from rng.
//
// Complexity: O(n·c² + |grid|·c³).
type Ridge struct {
	opts   Options
	std    standardizer
	target targetScaler
	w      []float64
	cols   int
	fitted bool
	report FitReport
}

// NewRidge returns an unfitted Ridge regressor.
func NewRidge(opts ...Option) *Ridge {
	return &Ridge{opts: gatherOptions(opts...)}
}

// Kind reports Point.
func (r *Ridge) Kind() Kind { return Point }

// Report returns the model-selection summary of the last successful Fit.
func (r *Ridge) Report() FitReport { return r.report }

// Fit selects the ridge penalty and solves the normal equations.
// Errors: ErrEmptyTrainingSet, ErrDimensionMismatch, ErrNonFinite, ErrSingular.
func (r *Ridge) Fit(x mat.Matrix, y []float64, rng *rand.Rand) error {
	if rng == nil {
		panic("estimator: Ridge.Fit: nil rng")
	}
	n, c, err := checkTraining(x, y)
	if err != nil {
		return estimatorErrorf("Ridge.Fit", err)
	}

	fitIdx, valIdx := holdout(n, r.opts.validationRatio, rng)
	r.std = fitStandardizer(x, fitIdx)
	var yFit []float64
	r.target, yFit = fitTarget(y, fitIdx)
	Xf := r.std.design(x, fitIdx)
	Xs, ySel := Xf, yFit
	if len(valIdx) > 0 {
		Xs = r.std.design(x, valIdx)
		ySel = r.target.gather(y, valIdx)
	}

	// Normal equations, shared by every candidate penalty.
	var xtx mat.SymDense
	xtx.SymOuterK(1, Xf.T())
	var xty mat.VecDense
	xty.MulVec(Xf.T(), mat.NewVecDense(len(yFit), yFit))

	rows := float64(len(fitIdx))
	pred := make([]float64, len(ySel))
	var best []float64
	bestLoss, bestPenalty := math.Inf(1), 0.0
	for _, lam := range r.opts.ridgeGrid {
		a := mat.NewSymDense(c, nil)
		a.CopySym(&xtx)
		for j := 0; j < c; j++ {
			a.SetSym(j, j, a.At(j, j)+lam*rows)
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(a); !ok {
			continue
		}
		var w mat.VecDense
		if err = chol.SolveVecTo(&w, &xty); err != nil {
			continue
		}

		h := head{w: w.RawVector().Data}
		h.eval(Xs, pred)
		loss := mse(pred, ySel)
		if loss < bestLoss-improvementTol {
			best, bestLoss, bestPenalty = append([]float64(nil), h.w...), loss, lam
		}
	}
	if best == nil {
		return estimatorErrorf("Ridge.Fit", fmt.Errorf("%w: grid %v", ErrSingular, r.opts.ridgeGrid))
	}

	r.w, r.cols, r.fitted = best, c, true
	r.report = FitReport{
		FitRows:        len(fitIdx),
		ValidationRows: len(valIdx),
		BestLoss:       bestLoss,
		Penalty:        bestPenalty,
	}

	return nil
}

// Predict returns the point estimate for features.
func (r *Ridge) Predict(features []float64) (Prediction, error) {
	if !r.fitted {
		return Prediction{}, estimatorErrorf("Ridge.Predict", ErrNotFitted)
	}
	if err := checkPredict(features, r.cols); err != nil {
		return Prediction{}, estimatorErrorf("Ridge.Predict", err)
	}
	z := make([]float64, r.cols)
	r.std.apply(features, z)
	v := r.target.invert(floats.Dot(r.w, z))

	return Prediction{Point: v, Low: v, High: v}, nil
}
