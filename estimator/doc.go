// SPDX-License-Identifier: MIT

// Package estimator provides the pluggable point and quantile regressors the
// conformal predictor calibrates.
//
// Contract (Estimator):
//
//	Fit(x, y, rng)  reserve a held-out fraction of the rows (default 10%),
//	                train on the rest, keep the snapshot with the best held-out loss.
//	Predict(x)      Prediction{Point} for point models, Prediction{Low, High} for quantile models.
//	Kind()          Point or Quantile; the scorer checks this before calibration.
//
// Shipped implementations:
//
//   - Ridge: closed-form ridge regression (gonum/mat Cholesky); the
//     penalty is selected from a grid by held-out MSE.
//   - Linear: linear point regressor, full-batch gradient descent on
//     squared loss with early stopping.
//   - QuantileLinear: two linear heads trained on the pinball loss at a low and
//     a high quantile (CQR base model), with early stopping.
//
// Features and the response are standardized on the training rows, so the
// default learning rates work across scales. Any other backend (a neural
// network, a call-out to a numeric service) can satisfy Estimator.
//
// Randomness comes only from the *rand.Rand passed to Fit. It drives the
// held-out split and weight initialization.
package estimator
