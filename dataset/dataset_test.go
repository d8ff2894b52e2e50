// SPDX-License-Identifier: MIT

package dataset_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/eqconformal/dataset"
)

func smallDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[][]float64{{1, 0}, {2, 1}, {3, 0}, {4, 1}},
		[]float64{10, 20, 30, 40},
	)
	require.NoError(t, err)

	return ds
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		x    [][]float64
		y    []float64
		want error
	}{
		{"empty", nil, nil, dataset.ErrEmptyDataset},
		{"zero columns", [][]float64{{}}, []float64{1}, dataset.ErrRaggedRows},
		{"ragged", [][]float64{{1, 2}, {3}}, []float64{1, 2}, dataset.ErrRaggedRows},
		{"length mismatch", [][]float64{{1}, {2}}, []float64{1}, dataset.ErrLengthMismatch},
		{"nan feature", [][]float64{{math.NaN()}}, []float64{1}, dataset.ErrNonFinite},
		{"inf response", [][]float64{{1}}, []float64{math.Inf(1)}, dataset.ErrNonFinite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dataset.New(tc.x, tc.y)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	t.Parallel()

	x := [][]float64{{1, 2}, {3, 4}}
	y := []float64{5, 6}
	ds, err := dataset.New(x, y)
	require.NoError(t, err)

	x[0][0] = 100
	y[0] = 100
	row, err := ds.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, row)
	assert.Equal(t, 5.0, ds.Response(0))

	row[1] = -1
	again, _ := ds.Row(0)
	assert.Equal(t, 2.0, again[1], "Row must return a copy")
}

func TestFromMatrix(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	ds, err := dataset.FromMatrix(m, []float64{1, 2})
	require.NoError(t, err)
	m.Set(0, 0, 9)

	r, c := ds.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.0, ds.Matrix().At(0, 0))

	_, err = dataset.FromMatrix(m, []float64{1})
	assert.ErrorIs(t, err, dataset.ErrLengthMismatch)
}

func TestGroups(t *testing.T) {
	t.Parallel()

	ds := smallDataset(t)
	assert.False(t, ds.HasGroups())
	assert.Nil(t, ds.Labels())

	_, err := ds.WithGroups([]dataset.Group{1})
	assert.ErrorIs(t, err, dataset.ErrLengthMismatch)

	labeled := ds.WithGroupFunc(dataset.ColumnGroup(1))
	assert.True(t, labeled.HasGroups())
	assert.Equal(t, []dataset.Group{0, 1, 0, 1}, labeled.Groups())
	assert.Equal(t, []dataset.Group{0, 1}, labeled.Labels())
	assert.False(t, ds.HasGroups(), "WithGroupFunc must not mutate the receiver")

	ex, err := labeled.Example(3)
	require.NoError(t, err)
	assert.Equal(t, dataset.Example{Features: []float64{4, 1}, Group: 1, HasGroup: true, Response: 40}, ex)
}

func TestLabelsWith_GroupFuncCannotMutate(t *testing.T) {
	t.Parallel()

	ds := smallDataset(t)
	scribble := func(features []float64) dataset.Group {
		g := dataset.Group(int(features[1]))
		for j := range features {
			features[j] = -99
		}

		return g
	}

	assert.Equal(t, []dataset.Group{0, 1, 0, 1}, ds.LabelsWith(scribble))
	labeled := ds.WithGroupFunc(scribble)
	assert.Equal(t, []dataset.Group{0, 1, 0, 1}, labeled.Groups())

	for i, want := range [][]float64{{1, 0}, {2, 1}, {3, 0}, {4, 1}} {
		row, err := ds.Row(i)
		require.NoError(t, err)
		assert.Equal(t, want, row, "row %d", i)
	}
}

func TestSubset(t *testing.T) {
	t.Parallel()

	ds := smallDataset(t).WithGroupFunc(dataset.ColumnGroup(1))
	sub, err := ds.Subset([]int{3, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []float64{40, 10}, sub.Responses())
	assert.Equal(t, []dataset.Group{1, 0}, sub.Groups())

	empty, err := ds.Subset(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	_, cols := empty.Dims()
	assert.Equal(t, 2, cols)
	assert.Nil(t, empty.Matrix())

	_, err = ds.Subset([]int{4})
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)
}

func TestGroupFuncs(t *testing.T) {
	t.Parallel()

	col := dataset.ColumnGroup(0)
	assert.Equal(t, dataset.Group(2), col([]float64{2.9}))
	assert.Equal(t, dataset.Universal, col(nil))

	thr := dataset.ThresholdGroup(0, 65)
	assert.Equal(t, dataset.Group(1), thr([]float64{70}))
	assert.Equal(t, dataset.Group(0), thr([]float64{65}))

	assert.Panics(t, func() { dataset.ColumnGroup(-1) })
	assert.Equal(t, "all", dataset.Universal.String())
	assert.Equal(t, "3", dataset.Group(3).String())
}

func TestPartition(t *testing.T) {
	t.Parallel()

	labels := []dataset.Group{0, 1, 0, 1, 2}
	parts, err := dataset.Partition(labels, []int{4, 0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[dataset.Group][]int{0: {0, 2}, 1: {1}, 2: {4}}, parts)

	_, err = dataset.Partition(labels, []int{5})
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)
}

func TestSplitIndices(t *testing.T) {
	t.Parallel()

	first, second, err := dataset.SplitIndices([]int{4, 2, 0, 1, 3}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, second)
	assert.Equal(t, []int{0, 1, 3}, first)

	_, _, err = dataset.SplitIndices([]int{0, 1}, 0)
	assert.ErrorIs(t, err, dataset.ErrBadRatio)
	_, _, err = dataset.SplitIndices([]int{0, 0}, 0.5)
	assert.ErrorIs(t, err, dataset.ErrBadPermutation)
}

func TestSplit_DeterministicAndDisjoint(t *testing.T) {
	t.Parallel()

	ds, err := dataset.Synthetic(dataset.DefaultSyntheticConfig(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	a1, b1, err := dataset.Split(ds, 0.3, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	a2, b2, err := dataset.Split(ds, 0.3, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)

	assert.Equal(t, 300, b1.Len())
	assert.Equal(t, 700, a1.Len())
	assert.Equal(t, a1.Responses(), a2.Responses())
	assert.Equal(t, b1.Responses(), b2.Responses())
}

func TestSynthetic(t *testing.T) {
	t.Parallel()

	cfg := dataset.DefaultSyntheticConfig()
	ds, err := dataset.Synthetic(cfg, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	r, c := ds.Dims()
	assert.Equal(t, cfg.Samples, r)
	assert.Equal(t, cfg.Features+1, c)

	counts := map[dataset.Group]int{}
	for i, g := range ds.Groups() {
		counts[g]++
		row, _ := ds.Row(i)
		assert.Equal(t, float64(g), row[cfg.GroupColumn()], "indicator column mirrors the label")
	}
	assert.Equal(t, map[dataset.Group]int{0: 500, 1: 500}, counts)

	again, err := dataset.Synthetic(cfg, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	assert.Equal(t, ds.Responses(), again.Responses())

	bad := cfg
	bad.NoiseSigma = [2]float64{0, 1}
	_, err = dataset.Synthetic(bad, rand.New(rand.NewPCG(3, 4)))
	assert.ErrorIs(t, err, dataset.ErrBadSynthetic)
}
