// SPDX-License-Identifier: MIT

package coverage

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/katalvlaran/eqconformal/dataset"
)

// Row is one line of a rendered report.
type Row struct {
	Group string `json:"group" yaml:"group"`
	Stats `yaml:",inline"`
}

// Rows returns the overall line ("all") followed by one line per group in label order.
// A breakdown whose only group is Universal is folded into the overall line.
func (r *Report) Rows() []Row {
	out := []Row{{Group: dataset.Universal.String(), Stats: r.Overall}}
	for _, g := range r.Labels() {
		if g == dataset.Universal {
			continue
		}
		out = append(out, Row{Group: g.String(), Stats: r.Groups[g]})
	}

	return out
}

// Table renders Rows as an aligned text table.
func (r *Report) Table() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "group\tn\tcovered\tcoverage\tmean_length\tmedian_length")
	for _, row := range r.Rows() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
			row.Group, row.N, row.Covered, row.Coverage, row.MeanLength, row.MedianLength)
	}
	_ = w.Flush()

	return b.String()
}
