// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/eqconformal/internal/config"
)

// app carries state shared by subcommands once the root pre-run resolved it.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger

	// flag values; applied only when the flag was set explicitly
	logLevel  string
	logFormat string
	output    string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "eqconf",
		Short: "Group-conditional split conformal prediction experiments",
		Long: `eqconf calibrates prediction intervals in marginal, joint and groupwise
mode on a seeded heteroscedastic two-group dataset and reports
coverage and interval length per group.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json")
	pf.StringVarP(&a.output, "output", "o", "", "report format: table, json, yaml")

	root.AddCommand(newRunCmd(a), newConfigCmd(a))

	return root
}

// load resolves defaults < file < env < persistent flags and builds the logger.
// It does not validate: subcommands apply their own flags first and then call Validate,
// so a flag can still override an invalid file or environment value.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if flags.Changed("output") {
		cfg.Output = a.output
	}

	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())

	return nil
}
