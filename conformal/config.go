// SPDX-License-Identifier: MIT

package conformal

import (
	"fmt"
	"math"

	"github.com/katalvlaran/eqconformal/score"
)

const (
	// DefaultAlpha targets 90% coverage.
	DefaultAlpha = 0.1

	// DefaultCalibrationRatio sends half of the training rows to calibration.
	DefaultCalibrationRatio = 0.5
)

// Config is the plain-data part of a calibration run. Behavioral hooks
// (group functions, estimators, loggers) are passed as Options.
type Config struct {
	// Alpha is the target miscoverage; intervals aim at 1−Alpha coverage.
	Alpha float64

	// CalibrationRatio is the fraction of training rows held out for calibration (I2).
	CalibrationRatio float64

	// Policy selects the nonconformity score.
	Policy score.Policy

	// Mode selects marginal, joint or groupwise calibration.
	Mode Mode

	// Seed drives the split permutation and every estimator's random source.
	Seed uint64

	// Sided calibrates the lower and upper interval ends separately at Alpha/2.
	Sided bool
}

// DefaultConfig returns α = 0.1, a 50/50 split, sign-error scoring, marginal mode and seed 0.
func DefaultConfig() Config {
	return Config{
		Alpha:            DefaultAlpha,
		CalibrationRatio: DefaultCalibrationRatio,
		Policy:           score.PolicySignError,
		Mode:             Marginal,
	}
}

// Validate reports the first invalid field as an ErrConfiguration.
func (c Config) Validate() error {
	if err := validateAlpha(c.Alpha); err != nil {
		return err
	}
	if !(c.CalibrationRatio > 0 && c.CalibrationRatio < 1) {
		return fmt.Errorf("%w: got %v", ErrBadRatio, c.CalibrationRatio)
	}
	if !c.Mode.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownMode, c.Mode)
	}
	if _, err := score.ForPolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return nil
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: got %v", ErrBadAlpha, alpha)
	}

	return nil
}
