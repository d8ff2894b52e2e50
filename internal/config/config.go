// SPDX-License-Identifier: MIT

// Package config loads the eqconf command configuration.
//
// Precedence, lowest first: Default(), the YAML file, EQCONF_* environment
// variables, then command-line flags applied by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/eqconformal/conformal"
	"github.com/katalvlaran/eqconformal/dataset"
	"github.com/katalvlaran/eqconformal/estimator"
	"github.com/katalvlaran/eqconformal/score"
)

// EnvPrefix prefixes every environment override, e.g. EQCONF_ALPHA or EQCONF_DATA_SAMPLES.
const EnvPrefix = "EQCONF"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete eqconf configuration.
type Config struct {
	Alpha            float64         `json:"alpha" yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lt=1"`
	CalibrationRatio float64         `json:"calibration_ratio" yaml:"calibration_ratio" envconfig:"CALIBRATION_RATIO" validate:"gt=0,lt=1"`
	TestRatio        float64         `json:"test_ratio" yaml:"test_ratio" envconfig:"TEST_RATIO" validate:"gt=0,lt=1"`
	Scoring          string          `json:"scoring" yaml:"scoring" envconfig:"SCORING" validate:"oneof=sign-error asymmetric-quantile"`
	Modes            []string        `json:"modes" yaml:"modes" envconfig:"MODES" validate:"min=1,dive,oneof=marginal joint groupwise"`
	Seed             uint64          `json:"seed" yaml:"seed" envconfig:"SEED"`
	Sided            bool            `json:"sided" yaml:"sided" envconfig:"SIDED"`
	Parallelism      int             `json:"parallelism" yaml:"parallelism" envconfig:"PARALLELISM" validate:"gte=0"`
	Output           string          `json:"output" yaml:"output" envconfig:"OUTPUT" validate:"oneof=table json yaml"`
	Estimator        EstimatorConfig `json:"estimator" yaml:"estimator" envconfig:"ESTIMATOR"`
	Data             DataConfig      `json:"data" yaml:"data" envconfig:"DATA"`
	Logging          LoggingConfig   `json:"logging" yaml:"logging" envconfig:"LOGGING"`
}

// EstimatorConfig selects and tunes the base model.
// Model "auto" picks ridge for sign-error and quantile for asymmetric-quantile scoring.
type EstimatorConfig struct {
	Model           string  `json:"model" yaml:"model" envconfig:"MODEL" validate:"oneof=auto ridge linear quantile"`
	ValidationRatio float64 `json:"validation_ratio" yaml:"validation_ratio" envconfig:"VALIDATION_RATIO" validate:"gte=0,lt=1"`
	Epochs          int     `json:"epochs" yaml:"epochs" envconfig:"EPOCHS" validate:"gt=0"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate" envconfig:"LEARNING_RATE" validate:"gt=0"`
	Patience        int     `json:"patience" yaml:"patience" envconfig:"PATIENCE" validate:"gt=0"`
}

// DataConfig parameterizes the synthetic two-group dataset.
type DataConfig struct {
	Samples    int       `json:"samples" yaml:"samples" envconfig:"SAMPLES" validate:"gte=2"`
	Features   int       `json:"features" yaml:"features" envconfig:"FEATURES" validate:"gte=1"`
	GroupShare float64   `json:"group_share" yaml:"group_share" envconfig:"GROUP_SHARE" validate:"gte=0,lte=1"`
	GroupShift float64   `json:"group_shift" yaml:"group_shift" envconfig:"GROUP_SHIFT"`
	Intercept  float64   `json:"intercept" yaml:"intercept" envconfig:"INTERCEPT"`
	NoiseSigma []float64 `json:"noise_sigma" yaml:"noise_sigma" envconfig:"NOISE_SIGMA" validate:"len=2,dive,gt=0"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// Default returns the built-in configuration: α = 0.1, every mode, 1000
// synthetic rows with a quarter held out for testing.
func Default() *Config {
	sc := dataset.DefaultSyntheticConfig()

	return &Config{
		Alpha:            conformal.DefaultAlpha,
		CalibrationRatio: conformal.DefaultCalibrationRatio,
		TestRatio:        0.25,
		Scoring:          score.PolicySignError.String(),
		Modes:            []string{"marginal", "joint", "groupwise"},
		Output:           "table",
		Estimator: EstimatorConfig{
			Model:           "auto",
			ValidationRatio: estimator.DefaultValidationRatio,
			Epochs:          estimator.DefaultEpochs,
			LearningRate:    estimator.DefaultLearningRate,
			Patience:        estimator.DefaultPatience,
		},
		Data: DataConfig{
			Samples:    sc.Samples,
			Features:   sc.Features,
			GroupShare: sc.GroupShare,
			NoiseSigma: []float64{sc.NoiseSigma[0], sc.NoiseSigma[1]},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load returns Default() overlaid with the YAML file at path (skipped when
// path is empty) and then with EQCONF_* environment variables.
// The result is not validated; call Validate after applying flags.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks every struct tag and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}

			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}

		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	wantQuantile := c.Scoring == score.PolicyAsymmetricQuantile.String()
	switch c.Estimator.Model {
	case "ridge", "linear":
		if wantQuantile {
			return fmt.Errorf("%w: estimator %q cannot serve %s scoring", ErrInvalid, c.Estimator.Model, c.Scoring)
		}
	case "quantile":
		if !wantQuantile {
			return fmt.Errorf("%w: estimator %q cannot serve %s scoring", ErrInvalid, c.Estimator.Model, c.Scoring)
		}
	}

	return nil
}

// ConformalConfig builds the calibration configuration for one mode.
func (c *Config) ConformalConfig(mode conformal.Mode) (conformal.Config, error) {
	policy, err := score.ParsePolicy(c.Scoring)
	if err != nil {
		return conformal.Config{}, err
	}

	return conformal.Config{
		Alpha:            c.Alpha,
		CalibrationRatio: c.CalibrationRatio,
		Policy:           policy,
		Mode:             mode,
		Seed:             c.Seed,
		Sided:            c.Sided,
	}, nil
}

// ParsedModes converts Modes into conformal.Mode values, preserving order.
func (c *Config) ParsedModes() ([]conformal.Mode, error) {
	out := make([]conformal.Mode, 0, len(c.Modes))
	for _, s := range c.Modes {
		m, err := conformal.ParseMode(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}

// Synthetic returns the dataset generator configuration.
func (c *Config) Synthetic() dataset.SyntheticConfig {
	sc := dataset.SyntheticConfig{
		Samples:    c.Data.Samples,
		Features:   c.Data.Features,
		GroupShare: c.Data.GroupShare,
		GroupShift: c.Data.GroupShift,
		Intercept:  c.Data.Intercept,
	}
	copy(sc.NoiseSigma[:], c.Data.NoiseSigma)

	return sc
}

// Factory returns the estimator factory for cc.
func (c *Config) Factory(cc conformal.Config) estimator.Factory {
	opts := []estimator.Option{
		estimator.WithValidationRatio(c.Estimator.ValidationRatio),
		estimator.WithEpochs(c.Estimator.Epochs),
		estimator.WithLearningRate(c.Estimator.LearningRate),
		estimator.WithPatience(c.Estimator.Patience),
	}
	switch c.Estimator.Model {
	case "ridge":
		return func() estimator.Estimator { return estimator.NewRidge(opts...) }
	case "linear":
		return func() estimator.Estimator { return estimator.NewLinear(opts...) }
	default:
		return conformal.DefaultFactory(cc, opts...)
	}
}

// Logger builds a slog.Logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
