package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"envpred/pkg/core"
	"envpred/pkg/data"
	"envpred/pkg/selection"
	"envpred/pkg/stats"
)

func selectCmd(a *app) *cobra.Command {
	var matrixPath, writeSubset string
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Find the k least mutually correlated predictors",
		Long: `Search every k-subset of the predictors for the one whose largest absolute
pairwise correlation is smallest. The matrix is computed from the samples, or
read from a CSV written by "envpred corr --write-matrix".

The search is exhaustive, C(n, k) subsets, and is meant for the few dozen
predictors of a climate stack at most.

Examples:
  envpred select -i samples.csv -k 5
  envpred select --matrix corr.csv -k 5 --workers 0 -o json
  envpred select -i samples.csv -k 4 --write-subset subset.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := a.cfg.Correlation.SubsetSize
			if k == 0 {
				return fmt.Errorf("%w: subset size is required (-k or correlation.subset_size)", core.ErrInvalidArgument)
			}

			var (
				m   *core.CorrMatrix
				ds  *data.Dataset
				err error
			)
			if matrixPath != "" {
				if writeSubset != "" {
					return fmt.Errorf("%w: --write-subset needs samples, not --matrix", core.ErrInvalidArgument)
				}
				m, err = readMatrixFile(matrixPath)
			} else {
				if ds, err = a.loadSamples(); err == nil {
					m, err = stats.CorrelationMatrix(ds)
				}
			}
			if err != nil {
				return err
			}

			sel := selection.NewSelector(
				selection.WithWorkers(a.cfg.Correlation.Workers),
				selection.WithValidation(a.cfg.Correlation.Validate),
				selection.WithLogger(a.logger),
			)
			res, err := sel.Select(m, k)
			if err != nil {
				return err
			}
			a.logger.Info("Selected least-correlated subset",
				zap.Strings("variables", res.Names),
				zap.Float64("max_abs_r", res.Score),
				zap.Int("evaluated", res.Evaluated))

			if writeSubset != "" {
				if err := writeSubsetFile(writeSubset, ds, res.Names); err != nil {
					return err
				}
			}
			return outputResult(cmd.OutOrStdout(), res, a.cfg.Output.Format)
		},
	}
	cmd.Flags().IntP("size", "k", 0, "Number of predictors to keep (required)")
	cmd.Flags().Int("workers", 1, "Goroutines for the search; 0 uses all CPUs")
	cmd.Flags().Bool("validate", false, "Reject matrices with entries outside [-1, 1] or a non-unit diagonal")
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Read a correlation matrix CSV instead of samples")
	cmd.Flags().StringVar(&writeSubset, "write-subset", "", "Write the samples of the chosen variables to this CSV")
	a.bind(cmd, merge(inputFlags(cmd), map[string]string{
		"size":     "correlation.subset_size",
		"workers":  "correlation.workers",
		"validate": "correlation.validate",
	}))
	return cmd
}

func readMatrixFile(path string) (*core.CorrMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := data.ReadMatrixCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func writeSubsetFile(path string, ds *data.Dataset, names []string) error {
	sub, err := ds.Select(names...)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := data.WriteCSV(f, sub); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
