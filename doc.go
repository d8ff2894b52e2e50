// SPDX-License-Identifier: MIT

// Package eqconformal computes prediction intervals with equalized coverage
// across groups, using split conformal prediction.
//
// A plain split-conformal interval covers the truth with probability 1−α on
// average over the whole population. When the noise level differs between
// groups, that average hides groups that are covered far less often. This
// module calibrates thresholds per group so each group reaches 1−α on its own.
//
// What is inside:
//
//	dataset/    feature matrix, responses, group labels, splits, synthetic data
//	estimator/  base regressors: Ridge, Linear (SGD) and QuantileLinear
//	score/      nonconformity scores: sign-error and asymmetric-quantile (CQR)
//	conformal/  FitAndCalibrate, CalibratedPredictor, the three modes
//	coverage/   empirical coverage and interval length, overall and per group
//	cmd/eqconf  command line driver for synthetic experiments
//
// Modes:
//
//   - Marginal: one model, one threshold for everyone.
//   - Joint: one model trained on all groups, one threshold per group.
//   - Groupwise: a model and a threshold per group.
//
// Quick start:
//
//	cfg := conformal.DefaultConfig()
//	cfg.Mode = conformal.Joint
//	p, err := conformal.FitAndCalibrate(train, cfg,
//		conformal.WithGroupFunc(dataset.ColumnGroup(3)))
//	if err != nil {
//		return err
//	}
//	iv, err := p.PredictInterval(features)
//
// See examples/clinic_waits for a runnable scenario.
package eqconformal
