// SPDX-License-Identifier: MIT

// Functional configuration shared by every estimator in this package.
//
// WithX constructors validate eagerly and panic on nonsensical values
// (programmer error). Options fields stay unexported; constructors consume
// ...Option and resolve them through gatherOptions.

package estimator

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidationRatio is the fraction of training rows held out for model selection.
	DefaultValidationRatio = 0.1

	// DefaultEpochs bounds full-batch gradient iterations.
	DefaultEpochs = 1000

	// DefaultLearningRate is the gradient step on standardized data.
	DefaultLearningRate = 0.05

	// DefaultPatience stops training after this many epochs without held-out improvement.
	DefaultPatience = 100

	// DefaultL2 is the weight-decay coefficient of gradient models.
	DefaultL2 = 0.0

	// DefaultQuantileLow and DefaultQuantileHigh bracket a nominal 90% band.
	DefaultQuantileLow  = 0.05
	DefaultQuantileHigh = 0.95

	// initScale is the standard deviation of random initial weights.
	initScale = 0.01
)

// DefaultRidgeGrid lists candidate ridge penalties (relative to the row count).
var DefaultRidgeGrid = []float64{1e-6, 1e-4, 1e-3, 1e-2, 1e-1, 1}

const (
	panicValidationRatio = "estimator: WithValidationRatio: ratio must be in [0, 1)"
	panicEpochs          = "estimator: WithEpochs: epochs must be > 0"
	panicLearningRate    = "estimator: WithLearningRate: rate must be finite and > 0"
	panicPatience        = "estimator: WithPatience: patience must be > 0"
	panicL2              = "estimator: WithL2: lambda must be finite and >= 0"
	panicQuantiles       = "estimator: WithQuantiles: need 0 < low < high < 1"
	panicRidgeGrid       = "estimator: WithRidgeGrid: penalties must be finite, > 0 and non-empty"
)

// Option mutates Options. Applying the same Option twice is harmless.
type Option func(*Options)

// Options is the resolved configuration of an estimator.
type Options struct {
	validationRatio float64
	epochs          int
	learningRate    float64
	patience        int
	l2              float64
	quantileLow     float64
	quantileHigh    float64
	ridgeGrid       []float64
}

// WithValidationRatio sets the held-out fraction. Zero disables the holdout;
// model selection then falls back to the training loss.
func WithValidationRatio(ratio float64) Option {
	if !(ratio >= 0 && ratio < 1) {
		panic(panicValidationRatio)
	}

	return func(o *Options) { o.validationRatio = ratio }
}

// WithEpochs bounds the number of gradient epochs.
func WithEpochs(epochs int) Option {
	if epochs <= 0 {
		panic(panicEpochs)
	}

	return func(o *Options) { o.epochs = epochs }
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(rate float64) Option {
	if isNonFinite(rate) || rate <= 0 {
		panic(panicLearningRate)
	}

	return func(o *Options) { o.learningRate = rate }
}

// WithPatience sets the early-stopping patience in epochs.
func WithPatience(patience int) Option {
	if patience <= 0 {
		panic(panicPatience)
	}

	return func(o *Options) { o.patience = patience }
}

// WithL2 sets weight decay for gradient models.
func WithL2(lambda float64) Option {
	if isNonFinite(lambda) || lambda < 0 {
		panic(panicL2)
	}

	return func(o *Options) { o.l2 = lambda }
}

// WithQuantiles sets the two quantile levels of QuantileLinear.
// For a target miscoverage α, the usual choice is (α/2, 1−α/2).
func WithQuantiles(low, high float64) Option {
	if !(low > 0 && low < high && high < 1) {
		panic(panicQuantiles)
	}

	return func(o *Options) { o.quantileLow, o.quantileHigh = low, high }
}

// WithRidgeGrid replaces the candidate penalties of Ridge.
func WithRidgeGrid(penalties ...float64) Option {
	if len(penalties) == 0 {
		panic(panicRidgeGrid)
	}
	for _, p := range penalties {
		if isNonFinite(p) || p <= 0 {
			panic(panicRidgeGrid)
		}
	}
	grid := append([]float64(nil), penalties...)

	return func(o *Options) { o.ridgeGrid = grid }
}

// gatherOptions applies opts over the package defaults.
func gatherOptions(opts ...Option) Options {
	o := Options{
		validationRatio: DefaultValidationRatio,
		epochs:          DefaultEpochs,
		learningRate:    DefaultLearningRate,
		patience:        DefaultPatience,
		l2:              DefaultL2,
		quantileLow:     DefaultQuantileLow,
		quantileHigh:    DefaultQuantileHigh,
		ridgeGrid:       DefaultRidgeGrid,
	}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
