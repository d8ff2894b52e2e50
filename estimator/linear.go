// SPDX-License-Identifier: MIT

package estimator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Linear is a linear point regressor trained by full-batch gradient descent
// on squared loss with early stopping on the held-out rows.
//
// Algorithm outline:
//  1. Hold out floor(ratio*n) rows; standardize features and response on the rest.
//  2. Initialize w ~ N(0, 0.01²), b = 0.
//  3. Each epoch: one gradient step on the training rows, then evaluate the
//     held-out MSE (training MSE when no rows are held out).
//  4. Keep the best snapshot; stop after Patience epochs without improvement.
//
// Complexity: O(epochs · n · c).
type Linear struct {
	opts   Options
	std    standardizer
	target targetScaler
	h      head
	cols   int
	fitted bool
	report FitReport
}

// NewLinear returns an unfitted Linear regressor.
func NewLinear(opts ...Option) *Linear {
	return &Linear{opts: gatherOptions(opts...)}
}

// Kind reports Point.
func (l *Linear) Kind() Kind { return Point }

// Report returns the model-selection summary of the last successful Fit.
func (l *Linear) Report() FitReport { return l.report }

// Fit trains the regressor; see the type documentation for the procedure.
// Errors: ErrEmptyTrainingSet, ErrDimensionMismatch, ErrNonFinite (all ErrTraining).
func (l *Linear) Fit(x mat.Matrix, y []float64, rng *rand.Rand) error {
	if rng == nil {
		panic("estimator: Linear.Fit: nil rng")
	}
	n, c, err := checkTraining(x, y)
	if err != nil {
		return estimatorErrorf("Linear.Fit", err)
	}

	fitIdx, valIdx := holdout(n, l.opts.validationRatio, rng)
	l.std = fitStandardizer(x, fitIdx)
	var yFit []float64
	l.target, yFit = fitTarget(y, fitIdx)
	Xf := l.std.design(x, fitIdx)

	// Selection set: held-out rows when available, else the training rows.
	Xs, ySel := Xf, yFit
	if len(valIdx) > 0 {
		Xs = l.std.design(x, valIdx)
		ySel = l.target.gather(y, valIdx)
	}

	h := newHead(c, rng)
	predFit := make([]float64, len(fitIdx))
	predSel := make([]float64, len(ySel))
	d := make([]float64, len(fitIdx))
	grad := mat.NewVecDense(c, nil)

	best, bestLoss, bestEpoch := h.clone(), math.Inf(1), 0
	epoch := 0
	for epoch = 1; epoch <= l.opts.epochs; epoch++ {
		h.eval(Xf, predFit)
		for i := range predFit {
			d[i] = predFit[i] - yFit[i]
		}
		h.step(Xf, d, l.opts.learningRate, l.opts.l2, grad)

		h.eval(Xs, predSel)
		loss := mse(predSel, ySel)
		if loss < bestLoss-improvementTol {
			best, bestLoss, bestEpoch = h.clone(), loss, epoch
		} else if epoch-bestEpoch >= l.opts.patience {
			break
		}
	}
	if epoch > l.opts.epochs {
		epoch = l.opts.epochs
	}

	l.h, l.cols, l.fitted = best, c, true
	l.report = FitReport{
		FitRows:        len(fitIdx),
		ValidationRows: len(valIdx),
		Epochs:         epoch,
		BestEpoch:      bestEpoch,
		BestLoss:       bestLoss,
	}

	return nil
}

// Predict returns the point estimate for features.
func (l *Linear) Predict(features []float64) (Prediction, error) {
	if !l.fitted {
		return Prediction{}, estimatorErrorf("Linear.Predict", ErrNotFitted)
	}
	if err := checkPredict(features, l.cols); err != nil {
		return Prediction{}, estimatorErrorf("Linear.Predict", err)
	}
	z := make([]float64, l.cols)
	l.std.apply(features, z)
	v := l.target.invert(l.h.at(z))

	return Prediction{Point: v, Low: v, High: v}, nil
}
