// SPDX-License-Identifier: MIT

// Command eqconf runs split conformal calibration experiments on synthetic
// two-group data and reports coverage per group.
//
//	eqconf run --mode marginal --mode groupwise --output json
//	eqconf config --config eqconf.yaml
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
