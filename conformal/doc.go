// SPDX-License-Identifier: MIT

// Package conformal implements split (inductive) conformal prediction with
// marginal and group-conditional ("equalized") coverage.
//
// A run takes one labeled training Dataset and proceeds as:
//
//	permutation → I1 (proper training) ∪ I2 (calibration), disjoint
//	fit base model(s) on I1
//	score I2 with a nonconformity Scorer
//	threshold q_g = ⌈(1−α)(n_g+1)⌉-th smallest score of group g
//	interval(x) = Scorer.Interval(model(x), q_group(x))
//
// Modes:
//
//   - Marginal: one model, one pooled threshold. Coverage ≥ 1−α on average
//     over all examples, but possibly far from it inside a subgroup.
//   - Joint: one model trained on every group, one threshold per group.
//   - Groupwise: one model and one threshold per group (models train concurrently).
//
// Group-conditional modes guarantee ≥ 1−α coverage within every group that
// has calibration data, under exchangeability within the group. A group with
// no calibration scores is an error at prediction time (ErrInsufficientCalibration).
// It never falls back to the marginal threshold.
//
// Ties among equal scores are broken by original row index. The quantile is
// an order statistic and never interpolated. When the rank exceeds the group
// size it is clipped to the largest score, Threshold.Clipped is set and a
// warning is logged.
//
// Randomness comes only from Config.Seed (math/rand/v2 PCG) or an explicit
// permutation passed through WithPermutation.
//
// Example:
//
//	cfg := conformal.DefaultConfig()
//	cfg.Mode = conformal.Groupwise
//	p, err := conformal.FitAndCalibrate(train, cfg, conformal.WithGroupFunc(dataset.ColumnGroup(3)))
//	if err != nil { ... }
//	iv, err := p.PredictInterval(x)
package conformal
