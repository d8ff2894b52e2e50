// SPDX-License-Identifier: MIT

package conformal

import (
	"fmt"

	"github.com/katalvlaran/eqconformal/coverage"
	"github.com/katalvlaran/eqconformal/dataset"
)

// EvaluateIntervals is coverage.Evaluate over Interval values.
func EvaluateIntervals(y []float64, intervals []Interval, groups []dataset.Group) (*coverage.Report, error) {
	if len(intervals) != len(y) {
		return nil, fmt.Errorf("conformal.EvaluateIntervals: %w: %d responses, %d intervals",
			coverage.ErrLengthMismatch, len(y), len(intervals))
	}
	lower := make([]float64, len(intervals))
	upper := make([]float64, len(intervals))
	for i, iv := range intervals {
		lower[i], upper[i] = iv.Lower, iv.Upper
	}

	return coverage.Evaluate(y, lower, upper, groups)
}

// Evaluate predicts every row of test and reports coverage overall and per
// group (labels resolved as in PredictDataset). Marginal predictors on
// unlabeled data report the overall line only.
func (p *CalibratedPredictor) Evaluate(test *dataset.Dataset) (*coverage.Report, error) {
	ivs, labels, err := p.PredictDataset(test)
	if err != nil {
		return nil, err
	}
	if !test.HasGroups() && p.groupFn == nil {
		labels = nil
	}
	r, err := EvaluateIntervals(test.Responses(), ivs, labels)
	if err != nil {
		return nil, conformalErrorf("Evaluate", err)
	}

	return r, nil
}
