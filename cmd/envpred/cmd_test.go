package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"envpred/pkg/core"
	"envpred/pkg/selection"
	"envpred/pkg/stats"
)

// writeSamples writes a sample table where x3 ≈ x1 + x2 and x5 ≈ x1.
func writeSamples(t *testing.T) string {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	var b strings.Builder
	b.WriteString("x1,x2,x3,x4,x5\n")
	for i := 0; i < 200; i++ {
		x1, x2, x4 := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		x3 := x1 + x2 + 0.1*rng.NormFloat64()
		x5 := x1 + 0.3*rng.NormFloat64()
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g\n", x1, x2, x3, x4, x5)
	}
	b.WriteString("NA,1,2,3,4\n")
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return path
}

func writeABCD(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abcd.csv")
	content := `,A,B,C,D
A,1,0.9,0.2,0.3
B,0.9,1,0.1,0.8
C,0.2,0.1,1,0.4
D,0.3,0.8,0.4,1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// ---------------------------------------------------------------------------
// command constructors
// ---------------------------------------------------------------------------

func TestRootCmd(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "envpred", root.Use)
	assert.NotEmpty(t, root.Long)

	out := root.PersistentFlags().Lookup("output")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"describe", "corr", "select", "vif", "pca"}, names)
}

func TestSubcommandFlags(t *testing.T) {
	tests := []struct {
		ctor  func(*app) *cobra.Command
		use   string
		flags []string
	}{
		{describeCmd, "describe", []string{"input", "vars", "missing", "log"}},
		{corrCmd, "corr", []string{"input", "threshold", "heatmap", "out-dir", "write-matrix"}},
		{selectCmd, "select", []string{"input", "size", "workers", "validate", "matrix", "write-subset"}},
		{vifCmd, "vif", []string{"input", "method", "threshold", "cor-threshold"}},
		{pcaCmd, "pca", []string{"input", "components", "rule", "variance", "plots", "out-dir"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			a := newApp()
			cmd := tt.ctor(a)
			assert.Equal(t, tt.use, cmd.Use)
			assert.NotEmpty(t, cmd.Short)
			assert.NotEmpty(t, cmd.Long)
			assert.NotNil(t, cmd.RunE)
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "flag --%s", f)
			}
			assert.Contains(t, a.bindings, cmd)
		})
	}

	k := selectCmd(newApp()).Flags().Lookup("size")
	require.NotNil(t, k)
	assert.Equal(t, "k", k.Shorthand)
}

// ---------------------------------------------------------------------------
// select
// ---------------------------------------------------------------------------

func TestSelectFromMatrix(t *testing.T) {
	out, err := run(t, "select", "--matrix", writeABCD(t), "-k", "3", "-o", "json")
	require.NoError(t, err)

	var res selection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"A", "C", "D"}, res.Names)
	assert.InDelta(t, 0.4, res.Score, 1e-12)
	assert.Equal(t, 4, res.Evaluated)

	table, err := run(t, "select", "--matrix", writeABCD(t), "-k", "3", "--workers", "0")
	require.NoError(t, err)
	assert.Contains(t, table, "A, C, D")
}

func TestSelectErrors(t *testing.T) {
	_, err := run(t, "select", "--matrix", writeABCD(t))
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "k is required")

	_, err = run(t, "select", "--matrix", writeABCD(t), "-k", "9")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = run(t, "select", "-k", "2")
	assert.ErrorIs(t, err, errNoInput)

	_, err = run(t, "select", "--matrix", writeABCD(t), "-k", "2", "--write-subset", "x.csv")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestCorrMatrixRoundTripToSelect(t *testing.T) {
	samples := writeSamples(t)
	dir := t.TempDir()
	matrix := filepath.Join(dir, "corr.csv")

	out, err := run(t, "corr", "-i", samples, "--write-matrix", matrix, "-o", "json")
	require.NoError(t, err)
	var corr CorrResult
	require.NoError(t, json.Unmarshal([]byte(out), &corr))
	assert.Equal(t, []string{"x1", "x2", "x3", "x4", "x5"}, corr.Variables)
	require.NotEmpty(t, corr.HighPairs)
	top := corr.HighPairs[0]
	assert.Equal(t, "x1", top.A)
	assert.Equal(t, "x5", top.B)
	assert.Equal(t, []string{matrix}, corr.Files)

	fromSamples, err := run(t, "select", "-i", samples, "-k", "3", "-o", "json")
	require.NoError(t, err)
	fromMatrix, err := run(t, "select", "--matrix", matrix, "-k", "3", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, fromSamples, fromMatrix)
}

func TestSelectWriteSubset(t *testing.T) {
	subset := filepath.Join(t.TempDir(), "subset.csv")
	out, err := run(t, "select", "-i", writeSamples(t), "-k", "2", "--write-subset", subset, "-o", "json")
	require.NoError(t, err)
	var res selection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	b, err := os.ReadFile(subset)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, strings.Join(res.Names, ","), lines[0])
	assert.Len(t, lines, 201, "header plus complete rows")
}

// ---------------------------------------------------------------------------
// vif, pca, describe
// ---------------------------------------------------------------------------

func TestVIFCmd(t *testing.T) {
	samples := writeSamples(t)
	out, err := run(t, "vif", "-i", samples, "--vars", "x1,x2,x3,x4", "-o", "json")
	require.NoError(t, err)
	var res struct {
		Method string `json:"method"`
		Filter struct {
			Excluded []string `json:"excluded"`
			Kept     []string `json:"kept"`
		} `json:"filter"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "step", res.Method)
	assert.Equal(t, []string{"x3"}, res.Filter.Excluded)
	assert.Equal(t, []string{"x1", "x2", "x4"}, res.Filter.Kept)

	out, err = run(t, "vif", "-i", samples, "--vars", "x1,x2,x4,x5", "--method", "cor")
	require.NoError(t, err)
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "cor (threshold 0.7)")

	_, err = run(t, "vif", "-i", samples, "--method", "ridge")
	assert.Error(t, err)
}

func TestPCACmd(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "pca", "-i", writeSamples(t), "--plots", "--out-dir", dir, "-o", "yaml")
	require.NoError(t, err)

	var res PCAResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Len(t, res.StdDev, 5)
	assert.Len(t, res.Loadings, 5)
	assert.InDelta(t, 1, res.Cumulative[4], 1e-9)
	assert.Equal(t, "kaiser", res.Rule)
	assert.GreaterOrEqual(t, res.Retained, 1)
	assert.Len(t, res.Suggested, res.Retained)
	assert.Equal(t, []string{filepath.Join(dir, "scree.png"), filepath.Join(dir, "biplot.png")}, res.Files)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}

	out, err = run(t, "pca", "-i", writeSamples(t), "--rule", "cumulative", "--variance", "1", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 5, res.Retained)
}

func TestDescribeCmd(t *testing.T) {
	out, err := run(t, "describe", "-i", writeSamples(t), "--missing", "mean", "-o", "json")
	require.NoError(t, err)
	var res []stats.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res, 5)
	assert.Equal(t, "x1", res[0].Name)
	assert.Equal(t, 201, res[0].N, "mean imputation keeps the NA row")

	table, err := run(t, "describe", "-i", writeSamples(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(table, "VARIABLE"))
}

// ---------------------------------------------------------------------------
// configuration
// ---------------------------------------------------------------------------

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "envpred.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`
input: %s
correlation:
  subset_size: 2
output:
  format: json
  dir: %s
  plots: true
`, writeSamples(t), dir)), 0600))

	out, err := run(t, "select", "--config", cfg)
	require.NoError(t, err)
	var res selection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Names, 2)

	out, err = run(t, "corr", "--config", cfg)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "correlation.png"))
	assert.Contains(t, out, `"high_pairs"`)

	_, err = run(t, "select", "--config", cfg, "-o", "xml")
	assert.Error(t, err, "flag overrides file and is validated")
}
