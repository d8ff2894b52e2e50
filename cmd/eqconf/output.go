// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// render writes results as an aligned table, indented JSON or YAML.
func render(w io.Writer, format string, results []modeResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}

		return enc.Close()
	case "table", "":
		return renderTable(w, results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, results []modeResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "mode=%s\tscoring=%s\talpha=%g\tsided=%v\tgap=%.4f\n", r.Mode, r.Scoring, r.Alpha, r.Sided, r.Gap)
		fmt.Fprintln(tw, "group\tn\tcovered\tcoverage\tmean_length\tmedian_length")
		for _, row := range r.Coverage {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
				row.Group, row.N, row.Covered, row.Coverage, row.MeanLength, row.MedianLength)
		}
		fmt.Fprintln(tw, "threshold\tn\trank\tvalue\tclipped\t")
		for _, t := range r.Thresholds {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%v\t\n", t.Group, t.N, t.Rank, t.Value, t.Clipped)
		}
	}

	return tw.Flush()
}
