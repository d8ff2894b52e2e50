// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// splitEps absorbs representation error so ratio*n = 300 does not floor to 299.
const splitEps = 1e-9

// ValidatePermutation checks that perm is a bijection on [0, n).
// Complexity: O(n) time, O(n) memory.
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("%w: length %d, want %d", ErrBadPermutation, len(perm), n)
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("%w: bad or repeated entry %d", ErrBadPermutation, p)
		}
		seen[p] = true
	}

	return nil
}

// SplitIndices partitions a permutation of [0, n) into two disjoint index sets.
//
// The second set receives floor(ratio*n) leading entries of perm, the first
// set the rest. Both outputs are sorted ascending so downstream consumers
// see examples in their original positional order.
//
// Errors: ErrBadRatio when ratio ∉ (0, 1); ErrBadPermutation from validation.
// Complexity: O(n log n).
func SplitIndices(perm []int, ratio float64) (first, second []int, err error) {
	if !(ratio > 0 && ratio < 1) {
		return nil, nil, datasetErrorf("SplitIndices", fmt.Errorf("%w: got %v", ErrBadRatio, ratio))
	}
	n := len(perm)
	if err = ValidatePermutation(perm, n); err != nil {
		return nil, nil, datasetErrorf("SplitIndices", err)
	}

	nSecond := int(math.Floor(ratio*float64(n) + splitEps))
	second = make([]int, nSecond)
	copy(second, perm[:nSecond])
	first = make([]int, n-nSecond)
	copy(first, perm[nSecond:])
	sort.Ints(first)
	sort.Ints(second)

	return first, second, nil
}

// Split partitions d into (rest, held) where held holds floor(ratio*Len()) rows
// drawn through rng. The same rng state always yields the same split.
func Split(d *Dataset, ratio float64, rng *rand.Rand) (rest, held *Dataset, err error) {
	if rng == nil {
		panic("dataset: Split: nil rng")
	}
	first, second, err := SplitIndices(rng.Perm(d.rows), ratio)
	if err != nil {
		return nil, nil, err
	}
	if rest, err = d.Subset(first); err != nil {
		return nil, nil, err
	}
	if held, err = d.Subset(second); err != nil {
		return nil, nil, err
	}

	return rest, held, nil
}
