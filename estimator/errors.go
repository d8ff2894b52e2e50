// SPDX-License-Identifier: MIT

package estimator

import (
	"errors"
	"fmt"
)

// ErrTraining is the parent of every training failure. It is surfaced to the
// caller unchanged and is never retried.
var ErrTraining = errors.New("estimator: training failed")

// Specific training failures; each satisfies errors.Is(err, ErrTraining).
var (
	// ErrEmptyTrainingSet is returned when Fit receives no rows.
	ErrEmptyTrainingSet = fmt.Errorf("%w: empty training set", ErrTraining)

	// ErrDimensionMismatch is returned when responses or feature vectors have the wrong length.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrTraining)

	// ErrNonFinite is returned when inputs contain NaN or ±Inf.
	ErrNonFinite = fmt.Errorf("%w: NaN or Inf in input", ErrTraining)

	// ErrSingular is returned when no ridge penalty yields a solvable system.
	ErrSingular = fmt.Errorf("%w: singular normal equations", ErrTraining)
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("estimator: model is not fitted")

// estimatorErrorf tags err with the estimator and method that failed.
func estimatorErrorf(op string, err error) error {
	return fmt.Errorf("estimator.%s: %w", op, err)
}
