// SPDX-License-Identifier: MIT

// Package coverage measures how often prediction intervals contain the
// observed response, overall and per group.
//
// Coverage for a set S is |{i ∈ S : lower_i ≤ y_i ≤ upper_i}| / |S|. The
// report also carries the mean and median interval length. Evaluation is
// pure and never mutates its inputs.
package coverage

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/eqconformal/dataset"
)

// Stats summarizes one set of intervals.
type Stats struct {
	N            int     `json:"n" yaml:"n"`
	Covered      int     `json:"covered" yaml:"covered"`
	Coverage     float64 `json:"coverage" yaml:"coverage"`
	MeanLength   float64 `json:"mean_length" yaml:"mean_length"`
	MedianLength float64 `json:"median_length" yaml:"median_length"`
}

// Report holds overall statistics and, when labels were supplied, one Stats per group.
type Report struct {
	Overall Stats
	Groups  map[dataset.Group]Stats
}

// Evaluate computes coverage and interval lengths.
// groups may be nil; otherwise it must have the same length as y and yields
// the per-group breakdown.
//
// Errors: ErrLengthMismatch, ErrEmpty, ErrInvalidInterval.
// Complexity: O(n log n) for the medians.
func Evaluate(y, lower, upper []float64, groups []dataset.Group) (*Report, error) {
	n := len(y)
	if len(lower) != n || len(upper) != n || (groups != nil && len(groups) != n) {
		return nil, fmt.Errorf("coverage.Evaluate: %w: y=%d lower=%d upper=%d groups=%d",
			ErrLengthMismatch, n, len(lower), len(upper), len(groups))
	}
	if n == 0 {
		return nil, fmt.Errorf("coverage.Evaluate: %w", ErrEmpty)
	}

	hit := make([]bool, n)
	length := make([]float64, n)
	for i := 0; i < n; i++ {
		lo, hi := lower[i], upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
			return nil, fmt.Errorf("coverage.Evaluate: %w: row %d [%v, %v]", ErrInvalidInterval, i, lo, hi)
		}
		hit[i] = y[i] >= lo && y[i] <= hi
		length[i] = hi - lo
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	r := &Report{Overall: summarize(hit, length, all), Groups: map[dataset.Group]Stats{}}
	if groups != nil {
		parts, err := dataset.Partition(groups, all)
		if err != nil {
			return nil, fmt.Errorf("coverage.Evaluate: %w", err)
		}
		for g, idx := range parts {
			r.Groups[g] = summarize(hit, length, idx)
		}
	}

	return r, nil
}

// summarize reduces the rows at idx (non-empty).
func summarize(hit []bool, length []float64, idx []int) Stats {
	s := Stats{N: len(idx)}
	lens := make([]float64, len(idx))
	for k, i := range idx {
		if hit[i] {
			s.Covered++
		}
		lens[k] = length[i]
	}
	s.Coverage = float64(s.Covered) / float64(s.N)
	s.MeanLength = stat.Mean(lens, nil)
	slices.Sort(lens)
	s.MedianLength = median(lens)

	return s
}

// median of a sorted, non-empty slice; even lengths average the two middle values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return 0.5 * (stat.Quantile(0.5, stat.Empirical, sorted, nil) + sorted[n/2])
}

// Labels returns the group labels of the breakdown in ascending order.
func (r *Report) Labels() []dataset.Group {
	return slices.Sorted(maps.Keys(r.Groups))
}

// CoverageGap returns max − min group coverage, or 0 with fewer than two groups.
func (r *Report) CoverageGap() float64 {
	if len(r.Groups) < 2 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range r.Groups {
		lo = math.Min(lo, s.Coverage)
		hi = math.Max(hi, s.Coverage)
	}

	return hi - lo
}
