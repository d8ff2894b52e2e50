// SPDX-License-Identifier: MIT

package dataset

import "errors"

// Every message is prefixed with "dataset: ..." so it is easy to grep in logs.
// Callers match with errors.Is; constructors wrap with an operation tag.
var (
	// ErrEmptyDataset is returned when a constructor receives zero rows.
	ErrEmptyDataset = errors.New("dataset: no rows")

	// ErrRaggedRows indicates feature rows of unequal length (or zero columns).
	ErrRaggedRows = errors.New("dataset: rows have inconsistent length")

	// ErrLengthMismatch indicates that responses or groups do not match the row count.
	ErrLengthMismatch = errors.New("dataset: length mismatch")

	// ErrIndexOutOfRange indicates a row index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("dataset: index out of range")

	// ErrNonFinite signals a NaN or ±Inf feature or response value.
	ErrNonFinite = errors.New("dataset: NaN or Inf encountered")

	// ErrBadRatio is returned when a split ratio lies outside (0, 1).
	ErrBadRatio = errors.New("dataset: ratio must be in (0, 1)")

	// ErrBadPermutation is returned when a permutation is not a bijection on [0, n).
	ErrBadPermutation = errors.New("dataset: invalid permutation")

	// ErrBadSynthetic is returned for an unusable SyntheticConfig.
	ErrBadSynthetic = errors.New("dataset: invalid synthetic configuration")
)
