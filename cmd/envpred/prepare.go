package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"envpred/pkg/data"
	"envpred/pkg/dataprep"
)

var errNoInput = errors.New("no input: pass --input or set input in the config file")

// inputFlags adds the sample-table flags shared by every analysis command.
func inputFlags(cmd *cobra.Command) map[string]string {
	cmd.Flags().StringP("input", "i", "", "CSV of sampled predictor values (header row of variable names)")
	cmd.Flags().StringSlice("vars", nil, "Restrict the analysis to these variables")
	cmd.Flags().String("missing", "omit", "Missing-value strategy: omit, mean, median")
	cmd.Flags().StringSlice("log", nil, "Variables to replace by log(1+x)")
	return map[string]string{
		"input":   "input",
		"vars":    "variables",
		"missing": "missing",
		"log":     "log_transform",
	}
}

// merge combines flag bindings.
func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// loadSamples reads the configured input and applies the preparation steps in
// order: variable selection, log transforms, missing values, duplicate rows
// and constant columns.
func (a *app) loadSamples() (*data.Dataset, error) {
	cfg := a.cfg
	if cfg.Input == "" {
		return nil, errNoInput
	}
	ds, err := data.LoadCSV(cfg.Input, a.logger)
	if err != nil {
		return nil, err
	}
	if len(cfg.Variables) > 0 {
		if ds, err = ds.Select(cfg.Variables...); err != nil {
			return nil, err
		}
	}
	if len(cfg.LogTransform) > 0 {
		if ds, err = dataprep.LogTransformColumns(ds, cfg.LogTransform...); err != nil {
			return nil, err
		}
	}
	strategy, err := dataprep.ParseStrategy(cfg.Missing)
	if err != nil {
		return nil, err
	}
	if ds, err = dataprep.HandleMissingValues(ds, strategy, a.logger); err != nil {
		return nil, err
	}
	if cfg.DropDuplicates {
		before := ds.NumRows()
		ds = dataprep.DropDuplicates(ds)
		a.logger.Info("Dropped duplicate rows", zap.Int("dropped", before-ds.NumRows()))
	}
	ds, dropped, err := dataprep.DropConstant(ds)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		a.logger.Warn("Dropped constant variables", zap.Strings("variables", dropped))
	}
	if ds.NumRows() < 2 {
		return nil, fmt.Errorf("%s: %d usable rows after preparation, need at least 2", cfg.Input, ds.NumRows())
	}
	a.logger.Info("Samples loaded",
		zap.String("input", cfg.Input),
		zap.Int("rows", ds.NumRows()),
		zap.Int("variables", ds.NumVars()))
	return ds, nil
}

// outPath places a generated file in the configured output directory.
func (a *app) outPath(name string) string {
	return filepath.Join(a.cfg.Output.Dir, name)
}
