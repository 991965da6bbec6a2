package main

import (
	"github.com/spf13/cobra"

	"envpred/pkg/stats"
)

func describeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Summarize each predictor",
		Long: `Print count, missing values, quartiles, mean and standard deviation of
every variable after preparation.

Examples:
  envpred describe -i samples.csv
  envpred describe -i samples.csv --vars bio1,bio12 -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadSamples()
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), stats.Describe(ds), a.cfg.Output.Format)
		},
	}
	a.bind(cmd, inputFlags(cmd))
	return cmd
}
