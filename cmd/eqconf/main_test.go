// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/eqconformal/internal/config"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunExperiment_AllModes(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 5
	require.NoError(t, cfg.Validate())

	results, err := runExperiment(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, want := range []string{"marginal", "joint", "groupwise"} {
		r := results[i]
		assert.Equal(t, want, r.Mode)
		require.Len(t, r.Coverage, 3, "overall plus two groups")
		assert.Equal(t, "all", r.Coverage[0].Group)
		assert.Equal(t, 250, r.Coverage[0].N)
	}
	assert.Len(t, results[0].Thresholds, 1)
	assert.Len(t, results[2].Thresholds, 2)
}

func TestRender_Formats(t *testing.T) {
	cfg := config.Default()
	cfg.Modes = []string{"joint"}
	cfg.Data.Samples = 400
	results, err := runExperiment(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", results))
	var decoded []modeResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, results[0].Mode, decoded[0].Mode)
	assert.Len(t, decoded[0].Coverage, 3)

	buf.Reset()
	require.NoError(t, render(&buf, "yaml", results))
	var fromYAML []modeResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, results[0].Thresholds, fromYAML[0].Thresholds)

	buf.Reset()
	require.NoError(t, render(&buf, "table", results))
	assert.Contains(t, buf.String(), "mode=joint")
	assert.Contains(t, buf.String(), "coverage")

	assert.Error(t, render(&buf, "xml", results))
}

func TestRootCmd_RunAndConfig(t *testing.T) {
	t.Setenv("EQCONF_DATA_SAMPLES", "300")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"run", "--mode", "groupwise", "--alpha", "0.2", "-o", "json", "--log-level", "error"})
	require.NoError(t, root.Execute())

	var results []modeResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "groupwise", results[0].Mode)
	assert.Equal(t, 0.2, results[0].Alpha)

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"config"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.Contains(out.String(), "samples: 300"), out.String())
}

func TestRootCmd_InvalidFlag(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "--alpha", "1.5"})
	err := root.Execute()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCmd_FlagOverridesInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alpha: 1.5\ndata:\n  samples: 300\n"), 0o600))

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"-c", path, "run", "--mode", "marginal", "--alpha", "0.2", "-o", "json", "--log-level", "error"})
	require.NoError(t, root.Execute())

	var results []modeResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 0.2, results[0].Alpha)

	// Without the flag the file value is rejected.
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"-c", path, "config"})
	assert.ErrorIs(t, root.Execute(), config.ErrInvalid)
}
