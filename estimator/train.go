// SPDX-License-Identifier: MIT

package estimator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// improvementTol is the minimum loss decrease that counts as progress.
const improvementTol = 1e-12

// checkTraining validates Fit inputs and returns the shape of x.
func checkTraining(x mat.Matrix, y []float64) (r, c int, err error) {
	if x == nil {
		return 0, 0, ErrEmptyTrainingSet
	}
	r, c = x.Dims()
	if r == 0 || c == 0 {
		return 0, 0, ErrEmptyTrainingSet
	}
	if len(y) != r {
		return 0, 0, fmt.Errorf("%w: %d rows, %d responses", ErrDimensionMismatch, r, len(y))
	}
	for i := 0; i < r; i++ {
		if isNonFinite(y[i]) {
			return 0, 0, fmt.Errorf("%w: response %d", ErrNonFinite, i)
		}
		for j := 0; j < c; j++ {
			if isNonFinite(x.At(i, j)) {
				return 0, 0, fmt.Errorf("%w: feature (%d,%d)", ErrNonFinite, i, j)
			}
		}
	}

	return r, c, nil
}

// holdout splits [0, n) into sorted (fit, validation) index sets.
// validation gets floor(ratio*n) rows but never all of them; with n == 1
// or ratio == 0 the validation set is empty.
func holdout(n int, ratio float64, rng *rand.Rand) (fit, val []int) {
	nVal := int(math.Floor(ratio * float64(n)))
	if nVal >= n {
		nVal = n - 1
	}
	perm := rng.Perm(n)
	val = append([]int(nil), perm[:nVal]...)
	fit = append([]int(nil), perm[nVal:]...)
	sort.Ints(fit)
	sort.Ints(val)

	return fit, val
}

// head is one linear output on standardized features: z = w·x + b.
type head struct {
	w []float64
	b float64
}

// newHead draws small random initial weights from rng.
func newHead(c int, rng *rand.Rand) head {
	h := head{w: make([]float64, c)}
	for j := range h.w {
		h.w[j] = rng.NormFloat64() * initScale
	}

	return h
}

// clone returns a deep copy for snapshotting.
func (h head) clone() head {
	return head{w: append([]float64(nil), h.w...), b: h.b}
}

// eval writes X·w + b into out (len == rows of X).
func (h head) eval(X *mat.Dense, out []float64) {
	r, _ := X.Dims()
	dst := mat.NewVecDense(r, out)
	dst.MulVec(X, mat.NewVecDense(len(h.w), h.w))
	floats.AddConst(h.b, out)
}

// at evaluates the head on a single standardized row.
func (h head) at(z []float64) float64 { return floats.Dot(h.w, z) + h.b }

// step applies one full-batch gradient step given d = ∂loss/∂prediction per row.
// grad_w = Xᵀd / r + l2·w, grad_b = Σd / r.
func (h *head) step(X *mat.Dense, d []float64, lr, l2 float64, grad *mat.VecDense) {
	r, _ := X.Dims()
	grad.MulVec(X.T(), mat.NewVecDense(r, d))
	g := grad.RawVector().Data
	inv := 1.0 / float64(r)
	for j := range h.w {
		h.w[j] -= lr * (g[j]*inv + l2*h.w[j])
	}
	h.b -= lr * floats.Sum(d) * inv
}

// mse returns the mean squared error of pred against y.
func mse(pred, y []float64) float64 {
	var s float64
	for i := range pred {
		e := pred[i] - y[i]
		s += e * e
	}

	return s / float64(len(pred))
}

// pinball returns the mean quantile (pinball) loss at level tau.
func pinball(pred, y []float64, tau float64) float64 {
	var s float64
	for i := range pred {
		r := y[i] - pred[i]
		if r >= 0 {
			s += tau * r
		} else {
			s += (tau - 1) * r
		}
	}

	return s / float64(len(pred))
}

// pinballGrad writes ∂pinball/∂pred into d.
func pinballGrad(pred, y []float64, tau float64, d []float64) {
	for i := range pred {
		switch {
		case y[i] > pred[i]:
			d[i] = -tau
		case y[i] < pred[i]:
			d[i] = 1 - tau
		default:
			d[i] = 0
		}
	}
}

// checkPredict validates a feature vector against the fitted width.
func checkPredict(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(features), want)
	}
	for j, v := range features {
		if isNonFinite(v) {
			return fmt.Errorf("%w: feature %d", ErrNonFinite, j)
		}
	}

	return nil
}

func isNonFinite(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
