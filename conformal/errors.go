// SPDX-License-Identifier: MIT

package conformal

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the parent of every invalid-configuration failure.
// FitAndCalibrate reports it before any model is trained.
var ErrConfiguration = errors.New("conformal: invalid configuration")

// Configuration failures; each satisfies errors.Is(err, ErrConfiguration).
var (
	// ErrBadAlpha indicates a miscoverage level outside (0, 1).
	ErrBadAlpha = fmt.Errorf("%w: alpha must be in (0, 1)", ErrConfiguration)

	// ErrBadRatio indicates a calibration ratio outside (0, 1).
	ErrBadRatio = fmt.Errorf("%w: calibration ratio must be in (0, 1)", ErrConfiguration)

	// ErrUnknownMode indicates a Mode value that is not Marginal, Joint or Groupwise.
	ErrUnknownMode = fmt.Errorf("%w: unknown calibration mode", ErrConfiguration)

	// ErrKindMismatch indicates an estimator whose Kind does not match the scoring policy.
	ErrKindMismatch = fmt.Errorf("%w: estimator kind does not match scoring policy", ErrConfiguration)

	// ErrNoGroups indicates a group-conditional mode with neither a GroupFunc nor stored labels.
	ErrNoGroups = fmt.Errorf("%w: group-conditional mode needs a GroupFunc or labeled data", ErrConfiguration)

	// ErrGroupRequired is returned by PredictInterval when the predictor was
	// calibrated on stored labels and cannot derive a group from features.
	ErrGroupRequired = fmt.Errorf("%w: no GroupFunc; use PredictIntervalForGroup", ErrConfiguration)
)

// ErrInsufficientCalibration is returned when a group seen at prediction time
// has no calibration scores (or when the calibration split is empty).
// There is no fallback to the marginal threshold.
var ErrInsufficientCalibration = errors.New("conformal: insufficient calibration data")

// ErrUnknownGroup indicates a groupwise prediction for a group that has no fitted model.
var ErrUnknownGroup = fmt.Errorf("%w: group has no fitted model", ErrInsufficientCalibration)

// conformalErrorf tags err with the failing operation.
func conformalErrorf(op string, err error) error {
	return fmt.Errorf("conformal.%s: %w", op, err)
}
