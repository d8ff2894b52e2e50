// SPDX-License-Identifier: MIT

package coverage

import "errors"

var (
	// ErrLengthMismatch indicates inputs of unequal length.
	ErrLengthMismatch = errors.New("coverage: length mismatch")

	// ErrEmpty indicates an evaluation over zero examples.
	ErrEmpty = errors.New("coverage: no examples")

	// ErrInvalidInterval indicates a NaN bound or Lower > Upper.
	ErrInvalidInterval = errors.New("coverage: invalid interval")
)
