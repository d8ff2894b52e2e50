// SPDX-License-Identifier: MIT

package dataset

import (
	"math"
	"strconv"
)

// Group is a discrete group label, e.g. a protected attribute value.
type Group int

// Universal is the single group every example belongs to under marginal
// calibration. It is chosen outside any label a feature column can produce.
const Universal Group = math.MinInt

// String renders Universal as "all" and any other label as its integer value.
func (g Group) String() string {
	if g == Universal {
		return "all"
	}

	return strconv.Itoa(int(g))
}

// GroupFunc maps a feature vector to its group label.
// Implementations must be pure, deterministic and total over the feature domain.
type GroupFunc func(features []float64) Group

// Example is a single positional record of a Dataset.
//
// Fields:
//   - Features: copy of the feature row (safe to modify).
//   - Group: label, meaningful only when HasGroup is true.
//   - Response: observed real-valued response.
type Example struct {
	Features []float64
	Group    Group
	HasGroup bool
	Response float64
}
