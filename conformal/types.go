// SPDX-License-Identifier: MIT

package conformal

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/eqconformal/dataset"
)

// Mode selects how models and thresholds are keyed by group.
//
//	Marginal   one model, one threshold shared by every example.
//	Joint      one model, one threshold per group.
//	Groupwise  one model and one threshold per group.
type Mode int

const (
	// Marginal pools every calibration score.
	Marginal Mode = iota
	// Joint fits one model on all rows and thresholds each group separately.
	Joint
	// Groupwise fits and thresholds each group independently.
	Groupwise
)

// Modes lists every calibration mode in declaration order.
var Modes = []Mode{Marginal, Joint, Groupwise}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Marginal:
		return "marginal"
	case Joint:
		return "joint"
	case Groupwise:
		return "groupwise"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// valid reports whether m is a declared Mode.
func (m Mode) valid() bool { return m >= Marginal && m <= Groupwise }

// conditional reports whether thresholds are keyed by group.
func (m Mode) conditional() bool { return m == Joint || m == Groupwise }

// ParseMode accepts "marginal", "joint" or "groupwise" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Interval is a closed prediction interval; Lower ≤ Upper always holds.
type Interval struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Width returns Upper − Lower.
func (iv Interval) Width() float64 { return iv.Upper - iv.Lower }

// Contains reports whether Lower ≤ y ≤ Upper.
func (iv Interval) Contains(y float64) bool { return y >= iv.Lower && y <= iv.Upper }

// Threshold is the calibrated quantile of one group's scores.
//
// Value is the Rank-th smallest of N scores, Rank = ⌈(1−α)(N+1)⌉ clipped to
// [1, N]. Clipped marks that the uncorrected rank fell outside that range:
// the calibration set was too small for α. Index is the row position (in the
// training Dataset) of the calibration example that produced Value.
//
// Sided calibration additionally fills Low and High, the thresholds applied to
// the lower and upper interval ends, each computed at level α/2.
type Threshold struct {
	Group   dataset.Group `json:"group" yaml:"group"`
	Value   float64       `json:"value" yaml:"value"`
	Rank    int           `json:"rank" yaml:"rank"`
	N       int           `json:"n" yaml:"n"`
	Clipped bool          `json:"clipped" yaml:"clipped"`
	Index   int           `json:"index" yaml:"index"`

	Sided bool    `json:"sided,omitempty" yaml:"sided,omitempty"`
	Low   float64 `json:"low,omitempty" yaml:"low,omitempty"`
	High  float64 `json:"high,omitempty" yaml:"high,omitempty"`
}
