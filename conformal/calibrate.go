// SPDX-License-Identifier: MIT

package conformal

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/eqconformal/dataset"
	"github.com/katalvlaran/eqconformal/estimator"
	"github.com/katalvlaran/eqconformal/score"
)

// PCG stream ids; the PCG seed is Config.Seed. Separate streams keep the
// split independent of model training.
const (
	splitStream uint64 = 0x5eed0001
	fitStream   uint64 = 0x5eed0002
)

// groupSeedMix moves group sources to seed word Seed^groupSeedMix, so they
// never share a (seed, stream) pair with splitStream or fitStream.
const groupSeedMix uint64 = 0x9e3779b97f4a7c15

func rngFor(seed, stream uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, stream)) }

// groupRNG derives a group's training source from (seed, g) alone, so
// groupwise results do not depend on goroutine scheduling. Distinct groups
// get distinct stream words.
func groupRNG(seed uint64, g dataset.Group) *rand.Rand {
	return rngFor(seed^groupSeedMix, uint64(int64(g)))
}

// DefaultFactory returns the base model used when no WithEstimator option is
// given: Ridge for sign-error scoring and QuantileLinear at (α/2, 1−α/2) for
// asymmetric quantile scoring. opts are applied after those defaults.
func DefaultFactory(cfg Config, opts ...estimator.Option) estimator.Factory {
	if cfg.Policy == score.PolicyAsymmetricQuantile {
		all := append([]estimator.Option{estimator.WithQuantiles(cfg.Alpha/2, 1-cfg.Alpha/2)}, opts...)

		return func() estimator.Estimator { return estimator.NewQuantileLinear(all...) }
	}

	return func() estimator.Estimator { return estimator.NewRidge(opts...) }
}

// FitAndCalibrate splits train into a proper training part (I1) and a
// calibration part (I2), fits the base model(s) on I1 and calibrates
// thresholds on I2.
//
// Implementation:
//   - Stage 1: validate cfg, resolve the scorer and estimator, check their kinds agree.
//   - Stage 2: resolve group labels (GroupFunc, else stored labels) for joint/groupwise modes.
//   - Stage 3: split with the caller permutation or one drawn from Config.Seed.
//   - Stage 4: fit one model (marginal, joint) or one per I1 group (groupwise, concurrent).
//   - Stage 5: score I2, partition by group and take the finite-sample quantile of each partition.
//
// Errors:
//   - ErrConfiguration (and its children) before any training.
//   - estimator.ErrTraining when the base model cannot be fitted.
//   - ErrInsufficientCalibration when the calibration split is empty.
//
// Nothing is returned on failure.
func FitAndCalibrate(train *dataset.Dataset, cfg Config, opts ...Option) (*CalibratedPredictor, error) {
	const op = "FitAndCalibrate"
	o := gatherOptions(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, conformalErrorf(op, err)
	}
	scorer, err := score.ForPolicy(cfg.Policy)
	if err != nil {
		return nil, conformalErrorf(op, fmt.Errorf("%w: %w", ErrConfiguration, err))
	}
	factory := o.factory
	if factory == nil {
		factory = DefaultFactory(cfg)
	}
	first := factory()
	if first == nil {
		return nil, conformalErrorf(op, fmt.Errorf("%w: estimator factory returned nil", ErrConfiguration))
	}
	if first.Kind() != scorer.Kind() {
		return nil, conformalErrorf(op, fmt.Errorf("%w: %s estimator with %s scoring", ErrKindMismatch, first.Kind(), scorer.Name()))
	}
	if train == nil || train.Len() == 0 {
		return nil, conformalErrorf(op, estimator.ErrEmptyTrainingSet)
	}
	labels, err := resolveLabels(train, cfg.Mode, o.groupFn)
	if err != nil {
		return nil, conformalErrorf(op, err)
	}

	n := train.Len()
	perm := o.perm
	if o.permSet {
		if err = dataset.ValidatePermutation(perm, n); err != nil {
			return nil, conformalErrorf(op, fmt.Errorf("%w: %w", ErrConfiguration, err))
		}
	} else {
		perm = rngFor(cfg.Seed, splitStream).Perm(n)
	}
	fitIdx, calIdx, err := dataset.SplitIndices(perm, cfg.CalibrationRatio)
	if err != nil {
		return nil, conformalErrorf(op, fmt.Errorf("%w: %w", ErrConfiguration, err))
	}
	if len(fitIdx) == 0 {
		return nil, conformalErrorf(op, fmt.Errorf("%w: proper training split of %d rows is empty", estimator.ErrEmptyTrainingSet, n))
	}
	if len(calIdx) == 0 {
		return nil, conformalErrorf(op, fmt.Errorf("%w: calibration split is empty (rows=%d, ratio=%v)",
			ErrInsufficientCalibration, n, cfg.CalibrationRatio))
	}
	o.logger.Debug("conformal: split",
		"mode", cfg.Mode.String(), "policy", scorer.Name(), "rows", n, "fit", len(fitIdx), "calibration", len(calIdx))

	models, err := fitModels(train, labels, fitIdx, cfg, factory, first, o)
	if err != nil {
		return nil, conformalErrorf(op, err)
	}
	sets, err := scoreCalibration(train, labels, calIdx, cfg.Mode, scorer, models, cfg.Sided, o.logger)
	if err != nil {
		return nil, conformalErrorf(op, err)
	}
	if len(sets) == 0 {
		return nil, conformalErrorf(op, fmt.Errorf("%w: no calibration row has a fitted model", ErrInsufficientCalibration))
	}

	_, cols := train.Dims()
	p := &CalibratedPredictor{
		mode:    cfg.Mode,
		alpha:   cfg.Alpha,
		sided:   cfg.Sided,
		scorer:  scorer,
		groupFn: o.groupFn,
		cols:    cols,
		models:  models,
		scores:  sets,
		fitIdx:  fitIdx,
		calIdx:  calIdx,
		logger:  o.logger,
	}
	p.thresholds = calibrate(sets, cfg.Alpha, cfg.Sided, o.logger)

	return p, nil
}

// resolveLabels returns per-row labels for group-conditional modes and nil for marginal.
func resolveLabels(train *dataset.Dataset, mode Mode, fn dataset.GroupFunc) ([]dataset.Group, error) {
	switch {
	case !mode.conditional():
		return nil, nil
	case fn != nil:
		return train.LabelsWith(fn), nil
	case train.HasGroups():
		return train.Groups(), nil
	default:
		return nil, fmt.Errorf("%w: mode %v", ErrNoGroups, mode)
	}
}

// modelKey maps a group to the key of the model that serves it.
func modelKey(mode Mode, g dataset.Group) dataset.Group {
	if mode == Groupwise {
		return g
	}

	return dataset.Universal
}

// fitModels trains the base model(s) on the proper training rows.
// Groupwise groups train concurrently, at most o.parallelism at a time.
func fitModels(
	train *dataset.Dataset,
	labels []dataset.Group,
	fitIdx []int,
	cfg Config,
	factory estimator.Factory,
	first estimator.Estimator,
	o Options,
) (map[dataset.Group]estimator.Model, error) {
	if cfg.Mode != Groupwise {
		sub, err := train.Subset(fitIdx)
		if err != nil {
			return nil, err
		}
		if err = first.Fit(sub.Matrix(), sub.Responses(), rngFor(cfg.Seed, fitStream)); err != nil {
			return nil, err
		}
		logFit(o.logger, dataset.Universal, first)

		return map[dataset.Group]estimator.Model{dataset.Universal: first}, nil
	}

	parts, err := dataset.Partition(labels, fitIdx)
	if err != nil {
		return nil, err
	}
	groups := slices.Sorted(maps.Keys(parts))
	fitted := make([]estimator.Estimator, len(groups))

	var eg errgroup.Group
	eg.SetLimit(o.parallelism)
	for k, g := range groups {
		eg.Go(func() error {
			sub, err := train.Subset(parts[g])
			if err != nil {
				return err
			}
			est := factory()
			if est == nil {
				return fmt.Errorf("%w: estimator factory returned nil", ErrConfiguration)
			}
			if err = est.Fit(sub.Matrix(), sub.Responses(), groupRNG(cfg.Seed, g)); err != nil {
				return fmt.Errorf("group %v: %w", g, err)
			}
			fitted[k] = est

			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}

	models := make(map[dataset.Group]estimator.Model, len(groups))
	for k, g := range groups {
		models[g] = fitted[k]
		logFit(o.logger, g, fitted[k])
	}

	return models, nil
}

func logFit(l *slog.Logger, g dataset.Group, m estimator.Model) {
	attrs := []any{"group", g.String(), "kind", m.Kind().String()}
	if r, ok := m.(estimator.Reporter); ok {
		rep := r.Report()
		attrs = append(attrs, "fit_rows", rep.FitRows, "validation_rows", rep.ValidationRows, "best_loss", rep.BestLoss)
	}
	l.Debug("conformal: model fitted", attrs...)
}

// scoreCalibration scores every calibration row under the model serving its
// group and buckets the scores by threshold key. Rows whose group has no
// fitted model (groupwise, group absent from I1) are skipped with a warning.
func scoreCalibration(
	train *dataset.Dataset,
	labels []dataset.Group,
	calIdx []int,
	mode Mode,
	scorer score.Scorer,
	models map[dataset.Group]estimator.Model,
	sided bool,
	logger *slog.Logger,
) (map[dataset.Group]*scoreSet, error) {
	x := train.Matrix()
	_, c := train.Dims()
	row := make([]float64, c)
	sets := make(map[dataset.Group]*scoreSet, len(models))
	skipped := make(map[dataset.Group]int)

	for _, i := range calIdx {
		g := dataset.Universal
		if mode.conditional() {
			g = labels[i]
		}
		m, ok := models[modelKey(mode, g)]
		if !ok {
			skipped[g]++
			continue
		}
		mat.Row(row, i, x)
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("calibration row %d: %w", i, err)
		}
		y := train.Response(i)
		s := sets[g]
		if s == nil {
			s = &scoreSet{}
			sets[g] = s
		}
		s.add(i, scorer.Score(p, y))
		if sided {
			s.addSided(scorer.Sided(p, y))
		}
	}
	for _, g := range slices.Sorted(maps.Keys(skipped)) {
		logger.Warn("conformal: calibration rows without a fitted model", "group", g.String(), "rows", skipped[g])
	}

	return sets, nil
}

// calibrate thresholds every score set at level alpha.
func calibrate(sets map[dataset.Group]*scoreSet, alpha float64, sided bool, logger *slog.Logger) map[dataset.Group]Threshold {
	out := make(map[dataset.Group]Threshold, len(sets))
	for _, g := range slices.Sorted(maps.Keys(sets)) {
		t := sets[g].threshold(g, alpha, sided)
		out[g] = t
		logger.Debug("conformal: threshold", "group", g.String(), "n", t.N, "rank", t.Rank, "value", t.Value)
		if t.Clipped {
			logger.Warn("conformal: rank clipped, calibration set too small for alpha",
				"group", g.String(), "n", t.N, "alpha", alpha)
		}
	}

	return out
}
