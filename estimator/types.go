// SPDX-License-Identifier: MIT

package estimator

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Kind tells which Prediction fields a model fills.
type Kind int

const (
	// Point models fill Prediction.Point.
	Point Kind = iota
	// Quantile models fill Prediction.Low and Prediction.High (Low ≤ High).
	Quantile
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Quantile:
		return "quantile"
	default:
		return "unknown"
	}
}

// Prediction is the output of a fitted model for one feature vector.
type Prediction struct {
	Point float64 // point estimate (quantile models report the band midpoint)
	Low   float64 // lower quantile estimate (quantile models only)
	High  float64 // upper quantile estimate (quantile models only)
}

// Model is a fitted, read-only predictor.
type Model interface {
	Predict(features []float64) (Prediction, error)
	Kind() Kind
}

// Estimator is a trainable Model. After Fit returns nil the value is only
// read, so one fitted Estimator may serve concurrent Predict calls.
type Estimator interface {
	Model
	Fit(x mat.Matrix, y []float64, rng *rand.Rand) error
}

// Factory builds a fresh, independently owned Estimator.
// Groupwise calibration calls it once per group.
type Factory func() Estimator

// FitReport summarizes the model-selection outcome of the last Fit.
type FitReport struct {
	FitRows        int     // rows used for training
	ValidationRows int     // rows held out for model selection (0 = selection on training loss)
	Epochs         int     // epochs actually run (gradient models)
	BestEpoch      int     // epoch of the retained snapshot (gradient models)
	BestLoss       float64 // held-out (or training) loss of the retained snapshot
	Penalty        float64 // selected ridge penalty (Ridge only)
}

// Reporter is implemented by estimators that expose a FitReport.
type Reporter interface {
	Report() FitReport
}
