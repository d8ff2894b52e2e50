// SPDX-License-Identifier: MIT

package estimator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// QuantileLinear fits two linear heads on the pinball loss at levels
// (low, high), the base model of conformalized quantile regression.
//
// Training mirrors Linear: standardized data, full-batch subgradient steps on
// both heads at once, and early stopping on the summed held-out pinball loss.
// Predict re-orders the two estimates so Low ≤ High, so crossed quantiles never
// produce an inverted band.
type QuantileLinear struct {
	opts   Options
	std    standardizer
	target targetScaler
	lo, hi head
	cols   int
	fitted bool
	report FitReport
}

// NewQuantileLinear returns an unfitted quantile regressor.
func NewQuantileLinear(opts ...Option) *QuantileLinear {
	return &QuantileLinear{opts: gatherOptions(opts...)}
}

// Kind reports Quantile.
func (q *QuantileLinear) Kind() Kind { return Quantile }

// Levels returns the (low, high) quantile levels.
func (q *QuantileLinear) Levels() (low, high float64) {
	return q.opts.quantileLow, q.opts.quantileHigh
}

// Report returns the model-selection summary of the last successful Fit.
func (q *QuantileLinear) Report() FitReport { return q.report }

// Fit trains both heads. Errors match Linear.Fit.
func (q *QuantileLinear) Fit(x mat.Matrix, y []float64, rng *rand.Rand) error {
	if rng == nil {
		panic("estimator: QuantileLinear.Fit: nil rng")
	}
	n, c, err := checkTraining(x, y)
	if err != nil {
		return estimatorErrorf("QuantileLinear.Fit", err)
	}

	fitIdx, valIdx := holdout(n, q.opts.validationRatio, rng)
	q.std = fitStandardizer(x, fitIdx)
	var yFit []float64
	q.target, yFit = fitTarget(y, fitIdx)
	Xf := q.std.design(x, fitIdx)
	Xs, ySel := Xf, yFit
	if len(valIdx) > 0 {
		Xs = q.std.design(x, valIdx)
		ySel = q.target.gather(y, valIdx)
	}

	tauLo, tauHi := q.opts.quantileLow, q.opts.quantileHigh
	lo, hi := newHead(c, rng), newHead(c, rng)
	predFit := make([]float64, len(fitIdx))
	predSel := make([]float64, len(ySel))
	d := make([]float64, len(fitIdx))
	grad := mat.NewVecDense(c, nil)

	// selLoss evaluates the summed pinball loss of both heads on the selection set.
	selLoss := func() float64 {
		lo.eval(Xs, predSel)
		s := pinball(predSel, ySel, tauLo)
		hi.eval(Xs, predSel)

		return s + pinball(predSel, ySel, tauHi)
	}

	bestLo, bestHi, bestLoss, bestEpoch := lo.clone(), hi.clone(), math.Inf(1), 0
	epoch := 0
	for epoch = 1; epoch <= q.opts.epochs; epoch++ {
		lo.eval(Xf, predFit)
		pinballGrad(predFit, yFit, tauLo, d)
		lo.step(Xf, d, q.opts.learningRate, q.opts.l2, grad)

		hi.eval(Xf, predFit)
		pinballGrad(predFit, yFit, tauHi, d)
		hi.step(Xf, d, q.opts.learningRate, q.opts.l2, grad)

		loss := selLoss()
		if loss < bestLoss-improvementTol {
			bestLo, bestHi, bestLoss, bestEpoch = lo.clone(), hi.clone(), loss, epoch
		} else if epoch-bestEpoch >= q.opts.patience {
			break
		}
	}
	if epoch > q.opts.epochs {
		epoch = q.opts.epochs
	}

	q.lo, q.hi, q.cols, q.fitted = bestLo, bestHi, c, true
	q.report = FitReport{
		FitRows:        len(fitIdx),
		ValidationRows: len(valIdx),
		Epochs:         epoch,
		BestEpoch:      bestEpoch,
		BestLoss:       bestLoss,
	}

	return nil
}

// Predict returns the (Low, High) quantile estimates and their midpoint.
func (q *QuantileLinear) Predict(features []float64) (Prediction, error) {
	if !q.fitted {
		return Prediction{}, estimatorErrorf("QuantileLinear.Predict", ErrNotFitted)
	}
	if err := checkPredict(features, q.cols); err != nil {
		return Prediction{}, estimatorErrorf("QuantileLinear.Predict", err)
	}
	z := make([]float64, q.cols)
	q.std.apply(features, z)
	low := q.target.invert(q.lo.at(z))
	high := q.target.invert(q.hi.at(z))
	if low > high {
		low, high = high, low
	}

	return Prediction{Point: 0.5 * (low + high), Low: low, High: high}, nil
}
