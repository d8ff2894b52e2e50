// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SyntheticConfig describes a two-group linear model with group-dependent noise:
//
//	x_j ~ U(-1, 1),  y = Intercept + Σ_j β_j x_j + GroupShift·[g=1] + ε,  ε ~ N(0, NoiseSigma[g]).
//
// The group indicator g ∈ {0, 1} is appended as the last feature column, the
// way a protected attribute sits inside a real feature matrix, and is also
// stored as the Dataset's group labels.
type SyntheticConfig struct {
	Samples      int        // total rows, > 1
	Features     int        // continuous features, > 0 (indicator column excluded)
	GroupShare   float64    // fraction of rows in group 1, in [0, 1]
	Coefficients []float64  // len == Features; nil selects DefaultCoefficients
	Intercept    float64    // constant term
	GroupShift   float64    // additive mean shift for group 1
	NoiseSigma   [2]float64 // noise standard deviation per group, each > 0
}

// DefaultCoefficients is cycled when SyntheticConfig.Coefficients is nil.
var DefaultCoefficients = []float64{1.5, -2.0, 0.75, 0.5}

// DefaultSyntheticConfig returns 1000 rows, three features and an even split
// where group 1 has four times the noise scale of group 0.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Samples:    1000,
		Features:   3,
		GroupShare: 0.5,
		NoiseSigma: [2]float64{0.5, 2.0},
	}
}

// GroupColumn is the feature index of the appended group indicator.
func (c SyntheticConfig) GroupColumn() int { return c.Features }

// Synthetic draws a Dataset from cfg using rng as the only random source.
// Implementation:
//   - Stage 1: validate the configuration.
//   - Stage 2: assign exactly round(GroupShare*Samples) rows to group 1, then shuffle labels.
//   - Stage 3: draw features and noise row by row in a fixed order.
//
// Determinism: identical (cfg, rng state) → identical Dataset.
func Synthetic(cfg SyntheticConfig, rng *rand.Rand) (*Dataset, error) {
	if rng == nil {
		panic("dataset: Synthetic: nil rng")
	}
	if err := cfg.validate(); err != nil {
		return nil, datasetErrorf("Synthetic", err)
	}

	beta := cfg.Coefficients
	if beta == nil {
		beta = make([]float64, cfg.Features)
		for j := range beta {
			beta[j] = DefaultCoefficients[j%len(DefaultCoefficients)]
		}
	}

	n := cfg.Samples
	n1 := int(math.Round(cfg.GroupShare * float64(n)))
	labels := make([]Group, n)
	for i := 0; i < n1; i++ {
		labels[i] = 1
	}
	rng.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	unif := distuv.Uniform{Min: -1, Max: 1, Src: rng}
	noise := [2]distuv.Normal{
		{Mu: 0, Sigma: cfg.NoiseSigma[0], Src: rng},
		{Mu: 0, Sigma: cfg.NoiseSigma[1], Src: rng},
	}

	cols := cfg.Features + 1
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		v := cfg.Intercept
		for j := 0; j < cfg.Features; j++ {
			row[j] = unif.Rand()
			v += beta[j] * row[j]
		}
		g := labels[i]
		row[cfg.Features] = float64(g)
		if g == 1 {
			v += cfg.GroupShift
		}
		rows[i] = row
		y[i] = v + noise[g].Rand()
	}

	ds, err := New(rows, y)
	if err != nil {
		return nil, err
	}

	return ds.WithGroups(labels)
}

func (c SyntheticConfig) validate() error {
	switch {
	case c.Samples < 2:
		return fmt.Errorf("%w: Samples=%d, need >= 2", ErrBadSynthetic, c.Samples)
	case c.Features < 1:
		return fmt.Errorf("%w: Features=%d, need >= 1", ErrBadSynthetic, c.Features)
	case !(c.GroupShare >= 0 && c.GroupShare <= 1):
		return fmt.Errorf("%w: GroupShare=%v not in [0, 1]", ErrBadSynthetic, c.GroupShare)
	case c.Coefficients != nil && len(c.Coefficients) != c.Features:
		return fmt.Errorf("%w: %d coefficients for %d features", ErrBadSynthetic, len(c.Coefficients), c.Features)
	case !(c.NoiseSigma[0] > 0) || !(c.NoiseSigma[1] > 0):
		return fmt.Errorf("%w: NoiseSigma must be > 0, got %v", ErrBadSynthetic, c.NoiseSigma)
	}

	return nil
}
