// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration after file, environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if a.cfg.Output == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")

				return enc.Encode(a.cfg)
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}

			return enc.Close()
		},
	}
}
