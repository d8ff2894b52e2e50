// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/eqconformal/conformal"
	"github.com/katalvlaran/eqconformal/coverage"
	"github.com/katalvlaran/eqconformal/dataset"
	"github.com/katalvlaran/eqconformal/internal/config"
)

// dataStream is the PCG stream of the synthetic draw and the train/test split.
const dataStream uint64 = 0xda7a

type runFlags struct {
	alpha   float64
	ratio   float64
	test    float64
	scoring string
	modes   []string
	seed    uint64
	sided   bool
	samples int
	model   string
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calibrate every configured mode and report coverage per group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd.Flags(), a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			results, err := runExperiment(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), a.cfg.Output, results)
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&f.alpha, "alpha", conformal.DefaultAlpha, "target miscoverage α")
	fs.Float64Var(&f.ratio, "calibration-ratio", conformal.DefaultCalibrationRatio, "fraction of training rows used for calibration")
	fs.Float64Var(&f.test, "test-ratio", 0.25, "fraction of generated rows held out for evaluation")
	fs.StringVar(&f.scoring, "scoring", "sign-error", "scoring policy: sign-error, asymmetric-quantile")
	fs.StringSliceVar(&f.modes, "mode", nil, "calibration mode (repeatable): marginal, joint, groupwise")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed")
	fs.BoolVar(&f.sided, "sided", false, "calibrate lower and upper ends separately")
	fs.IntVar(&f.samples, "samples", 1000, "synthetic rows to generate")
	fs.StringVar(&f.model, "model", "auto", "base model: auto, ridge, linear, quantile")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *runFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("alpha") {
		cfg.Alpha = f.alpha
	}
	if fs.Changed("calibration-ratio") {
		cfg.CalibrationRatio = f.ratio
	}
	if fs.Changed("test-ratio") {
		cfg.TestRatio = f.test
	}
	if fs.Changed("scoring") {
		cfg.Scoring = f.scoring
	}
	if fs.Changed("mode") {
		cfg.Modes = f.modes
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("sided") {
		cfg.Sided = f.sided
	}
	if fs.Changed("samples") {
		cfg.Data.Samples = f.samples
	}
	if fs.Changed("model") {
		cfg.Estimator.Model = f.model
	}
}

// modeResult is one calibrated mode evaluated on the test split.
type modeResult struct {
	Mode       string          `json:"mode" yaml:"mode"`
	Scoring    string          `json:"scoring" yaml:"scoring"`
	Alpha      float64         `json:"alpha" yaml:"alpha"`
	Sided      bool            `json:"sided" yaml:"sided"`
	Thresholds []thresholdView `json:"thresholds" yaml:"thresholds"`
	Coverage   []coverage.Row  `json:"coverage" yaml:"coverage"`
	Gap        float64         `json:"coverage_gap" yaml:"coverage_gap"`
}

// thresholdView renders a conformal.Threshold with a readable group label.
type thresholdView struct {
	Group   string  `json:"group" yaml:"group"`
	N       int     `json:"n" yaml:"n"`
	Rank    int     `json:"rank" yaml:"rank"`
	Value   float64 `json:"value" yaml:"value"`
	Low     float64 `json:"low,omitempty" yaml:"low,omitempty"`
	High    float64 `json:"high,omitempty" yaml:"high,omitempty"`
	Clipped bool    `json:"clipped" yaml:"clipped"`
}

// runExperiment draws the synthetic dataset, splits off a test set and
// calibrates every configured mode concurrently. Results keep the order of cfg.Modes.
func runExperiment(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]modeResult, error) {
	modes, err := cfg.ParsedModes()
	if err != nil {
		return nil, err
	}
	sc := cfg.Synthetic()
	rng := rand.New(rand.NewPCG(cfg.Seed, dataStream))
	full, err := dataset.Synthetic(sc, rng)
	if err != nil {
		return nil, err
	}
	train, test, err := dataset.Split(full, cfg.TestRatio, rng)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset ready", "train", train.Len(), "test", test.Len(), "features", sc.Features+1)

	groupFn := dataset.ColumnGroup(sc.GroupColumn())
	results := make([]modeResult, len(modes))
	eg, ctx := errgroup.WithContext(ctx)
	for k, mode := range modes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cc, err := cfg.ConformalConfig(mode)
			if err != nil {
				return err
			}
			opts := []conformal.Option{
				conformal.WithGroupFunc(groupFn),
				conformal.WithEstimator(cfg.Factory(cc)),
				conformal.WithLogger(logger.With("mode", mode.String())),
			}
			if cfg.Parallelism > 0 {
				opts = append(opts, conformal.WithParallelism(cfg.Parallelism))
			}
			p, err := conformal.FitAndCalibrate(train, cc, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", mode, err)
			}
			rep, err := p.Evaluate(test)
			if err != nil {
				return fmt.Errorf("%s: %w", mode, err)
			}
			results[k] = summarizeRun(mode, cc, p, rep)
			logger.Info("mode evaluated", "mode", mode.String(),
				"coverage", rep.Overall.Coverage, "coverage_gap", rep.CoverageGap())

			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func summarizeRun(mode conformal.Mode, cc conformal.Config, p *conformal.CalibratedPredictor, rep *coverage.Report) modeResult {
	res := modeResult{
		Mode:     mode.String(),
		Scoring:  cc.Policy.String(),
		Alpha:    cc.Alpha,
		Sided:    cc.Sided,
		Coverage: rep.Rows(),
		Gap:      rep.CoverageGap(),
	}
	for _, t := range p.Thresholds() {
		res.Thresholds = append(res.Thresholds, thresholdView{
			Group:   t.Group.String(),
			N:       t.N,
			Rank:    t.Rank,
			Value:   t.Value,
			Low:     t.Low,
			High:    t.High,
			Clipped: t.Clipped,
		})
	}

	return res
}
