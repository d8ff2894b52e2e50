// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an immutable ordered collection of examples.
// Identity is the positional row index; nothing mutates a Dataset after construction.
//
// The feature matrix is a row-major *mat.Dense. An empty Dataset (produced by
// Subset with no indices) keeps its column count and has a nil matrix.
type Dataset struct {
	x      *mat.Dense // nil when rows == 0
	y      []float64  // len == rows
	groups []Group    // nil when unlabeled, else len == rows
	rows   int
	cols   int
}

// New builds a Dataset from feature rows and responses.
// Implementation:
//   - Stage 1: validate non-empty input, rectangular rows and matching lengths.
//   - Stage 2: reject NaN/±Inf values.
//   - Stage 3: copy into a single flat backing slice owned by the Dataset.
//
// Errors: ErrEmptyDataset, ErrRaggedRows, ErrLengthMismatch, ErrNonFinite.
// Complexity: O(r*c) time and memory.
func New(features [][]float64, responses []float64) (*Dataset, error) {
	r := len(features)
	if r == 0 {
		return nil, datasetErrorf("New", ErrEmptyDataset)
	}
	c := len(features[0])
	if c == 0 {
		return nil, datasetErrorf("New", ErrRaggedRows)
	}
	if len(responses) != r {
		return nil, datasetErrorf("New", fmt.Errorf("%w: %d rows, %d responses", ErrLengthMismatch, r, len(responses)))
	}

	data := make([]float64, 0, r*c)
	for i, row := range features {
		if len(row) != c {
			return nil, datasetErrorf("New", fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedRows, i, len(row), c))
		}
		data = append(data, row...)
	}
	if err := checkFinite(data, responses); err != nil {
		return nil, datasetErrorf("New", err)
	}

	y := make([]float64, r)
	copy(y, responses)

	return &Dataset{x: mat.NewDense(r, c, data), y: y, rows: r, cols: c}, nil
}

// FromMatrix builds a Dataset from a gonum matrix and a response vector.
// The matrix is copied; later changes to x do not affect the Dataset.
func FromMatrix(x mat.Matrix, responses []float64) (*Dataset, error) {
	if x == nil {
		return nil, datasetErrorf("FromMatrix", ErrEmptyDataset)
	}
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, datasetErrorf("FromMatrix", ErrEmptyDataset)
	}
	if len(responses) != r {
		return nil, datasetErrorf("FromMatrix", fmt.Errorf("%w: %d rows, %d responses", ErrLengthMismatch, r, len(responses)))
	}

	d := mat.DenseCopyOf(x)
	if err := checkFinite(d.RawMatrix().Data, responses); err != nil {
		return nil, datasetErrorf("FromMatrix", err)
	}
	y := make([]float64, r)
	copy(y, responses)

	return &Dataset{x: d, y: y, rows: r, cols: c}, nil
}

// WithGroups returns a copy of d carrying the given group labels.
func (d *Dataset) WithGroups(groups []Group) (*Dataset, error) {
	if len(groups) != d.rows {
		return nil, datasetErrorf("WithGroups", fmt.Errorf("%w: %d rows, %d groups", ErrLengthMismatch, d.rows, len(groups)))
	}
	out := *d
	out.groups = make([]Group, len(groups))
	copy(out.groups, groups)

	return &out, nil
}

// WithGroupFunc returns a copy of d whose labels are fn applied to every row.
// As in LabelsWith, fn sees row copies.
func (d *Dataset) WithGroupFunc(fn GroupFunc) *Dataset {
	out := *d
	out.groups = d.LabelsWith(fn)

	return &out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Dims returns (rows, cols).
func (d *Dataset) Dims() (rows, cols int) { return d.rows, d.cols }

// Matrix exposes the feature matrix read-only. It is nil for an empty Dataset.
// Callers must not write through the returned value.
func (d *Dataset) Matrix() mat.Matrix {
	if d.x == nil {
		return nil
	}

	return d.x
}

// Row returns a copy of feature row i.
func (d *Dataset) Row(i int) ([]float64, error) {
	if i < 0 || i >= d.rows {
		return nil, datasetErrorf("Row", fmt.Errorf("%w: %d", ErrIndexOutOfRange, i))
	}
	out := make([]float64, d.cols)
	copy(out, d.x.RawRowView(i))

	return out, nil
}

// rowView returns the backing slice of row i without copying; i must be valid.
func (d *Dataset) rowView(i int) []float64 { return d.x.RawRowView(i) }

// Response returns y[i]; i must be in range.
func (d *Dataset) Response(i int) float64 { return d.y[i] }

// Responses returns a copy of the response vector.
func (d *Dataset) Responses() []float64 {
	out := make([]float64, len(d.y))
	copy(out, d.y)

	return out
}

// HasGroups reports whether the Dataset carries group labels.
func (d *Dataset) HasGroups() bool { return d.groups != nil }

// Group returns the label of row i and whether labels exist.
func (d *Dataset) Group(i int) (Group, bool) {
	if d.groups == nil || i < 0 || i >= d.rows {
		return 0, false
	}

	return d.groups[i], true
}

// Groups returns a copy of the label vector, or nil when unlabeled.
func (d *Dataset) Groups() []Group {
	if d.groups == nil {
		return nil
	}
	out := make([]Group, len(d.groups))
	copy(out, d.groups)

	return out
}

// Example returns row i as an Example.
func (d *Dataset) Example(i int) (Example, error) {
	row, err := d.Row(i)
	if err != nil {
		return Example{}, err
	}
	g, ok := d.Group(i)

	return Example{Features: row, Group: g, HasGroup: ok, Response: d.y[i]}, nil
}

// Labels returns the distinct group labels in ascending order (nil when unlabeled).
func (d *Dataset) Labels() []Group {
	if d.groups == nil {
		return nil
	}

	return DistinctGroups(d.groups)
}

// Subset returns a new Dataset with the rows at idx, in the given order.
// Implementation:
//   - Stage 1: validate every index against [0, Len()).
//   - Stage 2: gather rows, responses and labels into fresh storage.
//
// An empty idx yields an empty Dataset with the same column count.
// Complexity: O(len(idx) * cols).
func (d *Dataset) Subset(idx []int) (*Dataset, error) {
	for _, i := range idx {
		if i < 0 || i >= d.rows {
			return nil, datasetErrorf("Subset", fmt.Errorf("%w: %d", ErrIndexOutOfRange, i))
		}
	}

	out := &Dataset{rows: len(idx), cols: d.cols, y: make([]float64, len(idx))}
	if d.groups != nil {
		out.groups = make([]Group, len(idx))
	}
	if len(idx) == 0 {
		return out, nil
	}

	data := make([]float64, 0, len(idx)*d.cols)
	for k, i := range idx {
		data = append(data, d.x.RawRowView(i)...)
		out.y[k] = d.y[i]
		if d.groups != nil {
			out.groups[k] = d.groups[i]
		}
	}
	out.x = mat.NewDense(len(idx), d.cols, data)

	return out, nil
}

// DistinctGroups returns the sorted distinct labels in groups.
func DistinctGroups(groups []Group) []Group {
	seen := make(map[Group]struct{}, 4)
	out := make([]Group, 0, 4)
	for _, g := range groups {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// checkFinite rejects NaN and ±Inf in features and responses.
func checkFinite(features, responses []float64) error {
	for k, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature value at flat index %d", ErrNonFinite, k)
		}
	}
	for i, v := range responses {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: response %d", ErrNonFinite, i)
		}
	}

	return nil
}

// datasetErrorf tags err with the failing operation.
func datasetErrorf(op string, err error) error {
	return fmt.Errorf("dataset.%s: %w", op, err)
}
