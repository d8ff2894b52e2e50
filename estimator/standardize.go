// SPDX-License-Identifier: MIT
// Column standardization fitted on the training rows only.
//
// Determinism & Policy:
//   - Fixed column-then-row traversal for the statistics pass.
//   - Degenerate columns (std == 0, or a single row) keep scale 1, so a
//     constant column maps to all zeros instead of NaN.

package estimator

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// standardizer holds per-column location and scale.
type standardizer struct {
	mean  []float64
	scale []float64
}

// fitStandardizer computes column means and standard deviations over rows idx of x.
// Implementation:
//   - Stage 1: gather each column of the selected rows into a scratch slice.
//   - Stage 2: stat.MeanStdDev per column; degenerate scales are replaced by 1.
//
// Complexity: O(len(idx) * cols) time, O(len(idx)) scratch.
func fitStandardizer(x mat.Matrix, idx []int) standardizer {
	_, c := x.Dims()
	s := standardizer{mean: make([]float64, c), scale: make([]float64, c)}
	col := make([]float64, len(idx))
	for j := 0; j < c; j++ {
		for k, i := range idx {
			col[k] = x.At(i, j)
		}
		s.mean[j], s.scale[j] = meanScale(col)
	}

	return s
}

// meanScale returns (mean, std) of v with a safe scale for degenerate input.
func meanScale(v []float64) (mean, scale float64) {
	if len(v) == 1 {
		return v[0], 1
	}
	mean, scale = stat.MeanStdDev(v, nil)
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 1
	}

	return mean, scale
}

// apply writes the standardized version of row into dst (len(dst) == len(row)).
func (s standardizer) apply(row, dst []float64) {
	for j, v := range row {
		dst[j] = (v - s.mean[j]) / s.scale[j]
	}
}

// design builds the standardized design matrix for rows idx of x.
func (s standardizer) design(x mat.Matrix, idx []int) *mat.Dense {
	_, c := x.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for k, i := range idx {
		mat.Row(row, i, x)
		s.apply(row, out.RawRowView(k))
	}

	return out
}

// targetScaler standardizes the response.
type targetScaler struct {
	mean  float64
	scale float64
}

// fitTarget computes the response location and scale over rows idx.
func fitTarget(y []float64, idx []int) (targetScaler, []float64) {
	v := make([]float64, len(idx))
	for k, i := range idx {
		v[k] = y[i]
	}
	m, sc := meanScale(v)
	t := targetScaler{mean: m, scale: sc}
	for k := range v {
		v[k] = (v[k] - m) / sc
	}

	return t, v
}

// gatherTarget returns the standardized responses at rows idx.
func (t targetScaler) gather(y []float64, idx []int) []float64 {
	v := make([]float64, len(idx))
	for k, i := range idx {
		v[k] = (y[i] - t.mean) / t.scale
	}

	return v
}

// invert maps a standardized prediction back to response units.
func (t targetScaler) invert(z float64) float64 { return z*t.scale + t.mean }
