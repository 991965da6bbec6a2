package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"envpred/pkg/core"
	"envpred/pkg/data"
	"envpred/pkg/plotting"
	"envpred/pkg/stats"
)

// CorrResult is the output of the corr command.
type CorrResult struct {
	Variables []string     `json:"variables" yaml:"variables"`
	Matrix    [][]float64  `json:"matrix" yaml:"matrix"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
	HighPairs []stats.Pair `json:"high_pairs" yaml:"high_pairs"`
	Files     []string     `json:"files,omitempty" yaml:"files,omitempty"`
}

func corrCmd(a *app) *cobra.Command {
	var writeMatrix string
	cmd := &cobra.Command{
		Use:   "corr",
		Short: "Pearson correlation matrix and highly correlated pairs",
		Long: `Compute the Pearson correlation matrix of the sampled predictors and list
every pair whose |r| reaches the threshold.

Examples:
  envpred corr -i samples.csv
  envpred corr -i samples.csv --threshold 0.8 --heatmap --out-dir plots
  envpred corr -i samples.csv --write-matrix corr.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadSamples()
			if err != nil {
				return err
			}
			m, err := stats.CorrelationMatrix(ds)
			if err != nil {
				return err
			}
			res := CorrResult{
				Variables: m.Names(),
				Matrix:    m.Values(),
				Threshold: a.cfg.Correlation.Threshold,
				HighPairs: stats.HighPairs(m, a.cfg.Correlation.Threshold),
			}
			if writeMatrix != "" {
				if err := writeMatrixFile(writeMatrix, m); err != nil {
					return err
				}
				res.Files = append(res.Files, writeMatrix)
			}
			if a.cfg.Output.Plots {
				path := a.outPath("correlation.png")
				if err := plotting.CorrelationHeatmap(m, path); err != nil {
					return err
				}
				a.logger.Info("Saved correlation heatmap", zap.String("path", path))
				res.Files = append(res.Files, path)
			}
			return outputResult(cmd.OutOrStdout(), res, a.cfg.Output.Format)
		},
	}
	cmd.Flags().Float64("threshold", 0.7, "Report pairs with |r| at or above this value")
	cmd.Flags().Bool("heatmap", false, "Write correlation.png to the output directory")
	cmd.Flags().String("out-dir", ".", "Directory for generated plots")
	cmd.Flags().StringVar(&writeMatrix, "write-matrix", "", "Write the matrix as CSV to this path")
	a.bind(cmd, merge(inputFlags(cmd), map[string]string{
		"threshold": "correlation.threshold",
		"heatmap":   "output.plots",
		"out-dir":   "output.dir",
	}))
	return cmd
}

func writeMatrixFile(path string, m *core.CorrMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := data.WriteMatrixCSV(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
