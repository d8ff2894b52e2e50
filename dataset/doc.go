// SPDX-License-Identifier: MIT

// Package dataset holds the immutable example collections consumed by the
// conformal pipeline: a real-valued feature matrix, a response vector and an
// optional vector of discrete group labels.
//
// What lives here:
//
//   - Dataset / Example: positional, read-only views over features, responses and groups.
//   - SplitIndices / Split: disjoint partitions driven by an explicit permutation.
//   - GroupFunc helpers (ColumnGroup, ThresholdGroup): deterministic feature → label maps.
//   - Synthetic: a seeded two-group heteroscedastic generator for experiments and tests.
//
// Randomness never comes from global state: every random operation takes a
// *rand.Rand (math/rand/v2) supplied by the caller.
//
//	ds, err := dataset.New(rows, y)
//	train, test, err := dataset.Split(ds, 0.5, rand.New(rand.NewPCG(7, 7)))
package dataset
