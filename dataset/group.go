// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
)

// ColumnGroup returns a GroupFunc that reads the label from feature column col,
// truncated toward zero. A 0/1 indicator column yields groups 0 and 1.
//
// Panics if col < 0 (programmer error). Rows shorter than col+1 map to Universal.
func ColumnGroup(col int) GroupFunc {
	if col < 0 {
		panic("dataset: ColumnGroup: col must be >= 0")
	}

	return func(features []float64) Group {
		if col >= len(features) {
			return Universal
		}

		return Group(int(math.Trunc(features[col])))
	}
}

// ThresholdGroup returns a GroupFunc assigning 1 when features[col] > cut and 0 otherwise.
// Useful for binarizing a continuous attribute such as age.
func ThresholdGroup(col int, cut float64) GroupFunc {
	if col < 0 || math.IsNaN(cut) {
		panic("dataset: ThresholdGroup: col must be >= 0 and cut must not be NaN")
	}

	return func(features []float64) Group {
		if col >= len(features) {
			return Universal
		}
		if features[col] > cut {
			return 1
		}

		return 0
	}
}

// LabelsWith evaluates fn on every row of d and returns the labels in row order.
// fn receives a scratch copy of each row, so writes to it never reach d.
func (d *Dataset) LabelsWith(fn GroupFunc) []Group {
	out := make([]Group, d.rows)
	row := make([]float64, d.cols)
	for i := 0; i < d.rows; i++ {
		copy(row, d.rowView(i))
		out[i] = fn(row)
	}

	return out
}

// Partition buckets the positions in idx by their label in labels.
// Within a bucket, positions keep the order they have in idx.
func Partition(labels []Group, idx []int) (map[Group][]int, error) {
	out := make(map[Group][]int, 4)
	for _, i := range idx {
		if i < 0 || i >= len(labels) {
			return nil, datasetErrorf("Partition", fmt.Errorf("%w: %d", ErrIndexOutOfRange, i))
		}
		out[labels[i]] = append(out[labels[i]], i)
	}

	return out, nil
}
