// SPDX-License-Identifier: MIT

package conformal

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/eqconformal/dataset"
	"github.com/katalvlaran/eqconformal/estimator"
	"github.com/katalvlaran/eqconformal/score"
)

// CalibratedPredictor is the product of FitAndCalibrate: fitted model(s),
// per-group thresholds and the stored calibration scores they came from.
//
// The mode decides how the maps are keyed:
//
//	            models              thresholds
//	Marginal    {Universal}         {Universal}
//	Joint       {Universal}         one per calibrated group
//	Groupwise   one per I1 group    one per calibrated group
//
// A CalibratedPredictor is read-only after construction and safe for
// concurrent use when its base models are.
type CalibratedPredictor struct {
	mode    Mode
	alpha   float64
	sided   bool
	scorer  score.Scorer
	groupFn dataset.GroupFunc
	cols    int

	models     map[dataset.Group]estimator.Model
	scores     map[dataset.Group]*scoreSet
	thresholds map[dataset.Group]Threshold

	fitIdx []int
	calIdx []int
	logger *slog.Logger
}

// Mode returns the calibration mode.
func (p *CalibratedPredictor) Mode() Mode { return p.mode }

// Alpha returns the miscoverage level of the current thresholds.
func (p *CalibratedPredictor) Alpha() float64 { return p.alpha }

// Sided reports whether the interval ends are calibrated separately.
func (p *CalibratedPredictor) Sided() bool { return p.sided }

// Scorer returns the nonconformity scorer.
func (p *CalibratedPredictor) Scorer() score.Scorer { return p.scorer }

// Groups returns the calibrated threshold keys in ascending order
// (just Universal in marginal mode).
func (p *CalibratedPredictor) Groups() []dataset.Group {
	return slices.Sorted(maps.Keys(p.thresholds))
}

// Thresholds returns every threshold ordered by group.
func (p *CalibratedPredictor) Thresholds() []Threshold {
	out := make([]Threshold, 0, len(p.thresholds))
	for _, g := range p.Groups() {
		out = append(out, p.thresholds[g])
	}

	return out
}

// Threshold returns the threshold serving group g.
func (p *CalibratedPredictor) Threshold(g dataset.Group) (Threshold, bool) {
	t, ok := p.thresholds[p.thresholdKey(g)]

	return t, ok
}

// Model returns the fitted model serving group g.
func (p *CalibratedPredictor) Model(g dataset.Group) (estimator.Model, bool) {
	m, ok := p.models[modelKey(p.mode, g)]

	return m, ok
}

// Split returns copies of the proper-training (I1) and calibration (I2) row
// indices, both ascending. They are disjoint.
func (p *CalibratedPredictor) Split() (fit, calibration []int) {
	return slices.Clone(p.fitIdx), slices.Clone(p.calIdx)
}

func (p *CalibratedPredictor) thresholdKey(g dataset.Group) dataset.Group {
	if p.mode.conditional() {
		return g
	}

	return dataset.Universal
}

// Recalibrate returns a predictor sharing the fitted models whose thresholds
// are recomputed from the stored calibration scores at the new alpha.
// The receiver is not modified.
func (p *CalibratedPredictor) Recalibrate(alpha float64) (*CalibratedPredictor, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, conformalErrorf("Recalibrate", err)
	}
	out := *p
	out.alpha = alpha
	out.thresholds = calibrate(p.scores, alpha, p.sided, p.logger)

	return &out, nil
}

// PredictInterval returns the calibrated interval for features. In joint and
// groupwise modes the group comes from the GroupFunc given to FitAndCalibrate;
// without one it fails with ErrGroupRequired (use PredictIntervalForGroup).
//
// Errors: ErrGroupRequired, ErrInsufficientCalibration, ErrUnknownGroup,
// and the model's own prediction errors.
func (p *CalibratedPredictor) PredictInterval(features []float64) (Interval, error) {
	const op = "PredictInterval"
	g := dataset.Universal
	if p.mode.conditional() {
		if p.groupFn == nil {
			return Interval{}, conformalErrorf(op, ErrGroupRequired)
		}
		g = p.groupFn(features)
	}

	iv, err := p.predict(features, g)
	if err != nil {
		return Interval{}, conformalErrorf(op, err)
	}

	return iv, nil
}

// PredictIntervalForGroup is PredictInterval with an explicit group label.
// Marginal predictors ignore g.
func (p *CalibratedPredictor) PredictIntervalForGroup(features []float64, g dataset.Group) (Interval, error) {
	iv, err := p.predict(features, g)
	if err != nil {
		return Interval{}, conformalErrorf("PredictIntervalForGroup", err)
	}

	return iv, nil
}

func (p *CalibratedPredictor) predict(features []float64, g dataset.Group) (Interval, error) {
	m, ok := p.models[modelKey(p.mode, g)]
	if !ok {
		return Interval{}, fmt.Errorf("%w: group %v", ErrUnknownGroup, g)
	}
	t, ok := p.thresholds[p.thresholdKey(g)]
	if !ok {
		return Interval{}, fmt.Errorf("%w: group %v has no calibration scores", ErrInsufficientCalibration, g)
	}
	pred, err := m.Predict(features)
	if err != nil {
		return Interval{}, err
	}

	var lo, hi float64
	if t.Sided {
		lo, hi = p.scorer.SidedInterval(pred, t.Low, t.High)
	} else {
		lo, hi = p.scorer.Interval(pred, t.Value)
	}

	return Interval{Lower: lo, Upper: hi}, nil
}

// PredictBatch applies PredictInterval to every row of x.
// The first failing row aborts the batch.
func (p *CalibratedPredictor) PredictBatch(x mat.Matrix) ([]Interval, error) {
	if x == nil {
		return nil, nil
	}
	r, c := x.Dims()
	if c != p.cols {
		return nil, conformalErrorf("PredictBatch",
			fmt.Errorf("%w: %d columns, want %d", estimator.ErrDimensionMismatch, c, p.cols))
	}
	out := make([]Interval, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		iv, err := p.PredictInterval(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = iv
	}

	return out, nil
}

// PredictDataset predicts every row of d and returns the intervals with the
// group label each row was served under. Labels come from the GroupFunc when
// set, else from d's stored labels; marginal predictors report those labels
// (or Universal) for evaluation but use the single threshold.
func (p *CalibratedPredictor) PredictDataset(d *dataset.Dataset) ([]Interval, []dataset.Group, error) {
	const op = "PredictDataset"
	r, c := d.Dims()
	if c != p.cols {
		return nil, nil, conformalErrorf(op,
			fmt.Errorf("%w: %d columns, want %d", estimator.ErrDimensionMismatch, c, p.cols))
	}

	var labels []dataset.Group
	switch {
	case p.groupFn != nil:
		labels = d.LabelsWith(p.groupFn)
	case d.HasGroups():
		labels = d.Groups()
	case p.mode.conditional():
		return nil, nil, conformalErrorf(op, ErrGroupRequired)
	default:
		labels = make([]dataset.Group, r)
		for i := range labels {
			labels[i] = dataset.Universal
		}
	}

	out := make([]Interval, r)
	if r == 0 {
		return out, labels, nil
	}
	x := d.Matrix()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		iv, err := p.predict(row, labels[i])
		if err != nil {
			return nil, nil, conformalErrorf(op, fmt.Errorf("row %d: %w", i, err))
		}
		out[i] = iv
	}

	return out, labels, nil
}
