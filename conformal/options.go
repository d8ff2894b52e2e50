// SPDX-License-Identifier: MIT

package conformal

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/katalvlaran/eqconformal/dataset"
	"github.com/katalvlaran/eqconformal/estimator"
)

const (
	panicGroupFunc   = "conformal: WithGroupFunc: nil GroupFunc"
	panicEstimator   = "conformal: WithEstimator: nil Factory"
	panicLogger      = "conformal: WithLogger: nil logger"
	panicParallelism = "conformal: WithParallelism: workers must be > 0"
)

// Option configures FitAndCalibrate.
type Option func(*Options)

// Options holds the resolved behavioral hooks of one calibration run.
type Options struct {
	groupFn     dataset.GroupFunc
	factory     estimator.Factory
	perm        []int
	permSet     bool
	logger      *slog.Logger
	parallelism int
}

// WithGroupFunc derives group labels from features, both during calibration
// and in PredictInterval. Without it, joint and groupwise modes read the
// training Dataset's stored labels.
func WithGroupFunc(fn dataset.GroupFunc) Option {
	if fn == nil {
		panic(panicGroupFunc)
	}

	return func(o *Options) { o.groupFn = fn }
}

// WithEstimator replaces the default base model. The factory is called once
// in marginal and joint modes and once per group in groupwise mode.
func WithEstimator(f estimator.Factory) Option {
	if f == nil {
		panic(panicEstimator)
	}

	return func(o *Options) { o.factory = f }
}

// WithPermutation fixes the split permutation instead of drawing one from
// Config.Seed. Its first floor(CalibrationRatio·n) entries form the calibration set.
// The permutation is validated by FitAndCalibrate.
func WithPermutation(perm []int) Option {
	p := append([]int(nil), perm...)

	return func(o *Options) { o.perm, o.permSet = p, true }
}

// WithLogger sets the structured logger. The default discards every record.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicLogger)
	}

	return func(o *Options) { o.logger = l }
}

// WithParallelism bounds concurrent per-group training in groupwise mode.
// The default is runtime.GOMAXPROCS(0).
func WithParallelism(workers int) Option {
	if workers <= 0 {
		panic(panicParallelism)
	}

	return func(o *Options) { o.parallelism = workers }
}

func gatherOptions(opts ...Option) Options {
	o := Options{parallelism: runtime.GOMAXPROCS(0)}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return o
}
