// SPDX-License-Identifier: MIT

package conformal

import (
	"math"
	"sort"

	"github.com/katalvlaran/eqconformal/dataset"
)

// rankEps keeps (1−α)(n+1) = 91.00000000000001 from ceiling to 92.
const rankEps = 1e-9

// conformalRank returns the finite-sample rank ⌈(1−α)(n+1)⌉ clipped to [1, n].
// clipped is true when the unclipped rank fell outside that range.
// n must be > 0.
func conformalRank(n int, alpha float64) (rank int, clipped bool) {
	rank = int(math.Ceil((1-alpha)*float64(n+1) - rankEps))
	switch {
	case rank > n:
		return n, true
	case rank < 1:
		return 1, true
	}

	return rank, false
}

// scoreSet is one group's calibration scores in ascending row order.
// low and high hold the sided scores, filled only for sided calibration.
type scoreSet struct {
	index []int
	value []float64
	low   []float64
	high  []float64
}

func (s *scoreSet) len() int { return len(s.index) }

func (s *scoreSet) add(i int, v float64) {
	s.index = append(s.index, i)
	s.value = append(s.value, v)
}

func (s *scoreSet) addSided(lo, hi float64) {
	s.low = append(s.low, lo)
	s.high = append(s.high, hi)
}

// orderStatistic returns the k-th smallest (1-based) of values and the row
// index that carries it. Equal values keep ascending row order, so the result
// never depends on sort internals. No interpolation between neighbours.
// Complexity: O(n log n).
func orderStatistic(values []float64, index []int, k int) (float64, int) {
	pos := make([]int, len(values))
	for i := range pos {
		pos[i] = i
	}
	sort.SliceStable(pos, func(a, b int) bool { return values[pos[a]] < values[pos[b]] })
	p := pos[k-1]

	return values[p], index[p]
}

// threshold calibrates one group at level alpha.
func (s *scoreSet) threshold(g dataset.Group, alpha float64, sided bool) Threshold {
	n := s.len()
	rank, clipped := conformalRank(n, alpha)
	v, idx := orderStatistic(s.value, s.index, rank)
	t := Threshold{Group: g, Value: v, Rank: rank, N: n, Clipped: clipped, Index: idx}
	if sided {
		sr, sc := conformalRank(n, alpha/2)
		t.Sided = true
		t.Low, _ = orderStatistic(s.low, s.index, sr)
		t.High, _ = orderStatistic(s.high, s.index, sr)
		t.Clipped = t.Clipped || sc
	}

	return t
}
