package main

import (
	"github.com/spf13/cobra"

	"envpred/pkg/config"
	"envpred/pkg/selection"
)

// VIFResult is the output of the vif command.
type VIFResult struct {
	Method    string                `json:"method" yaml:"method"`
	Threshold float64               `json:"threshold" yaml:"threshold"`
	Initial   []selection.VIFEntry  `json:"initial" yaml:"initial"`
	Filter    *selection.StepResult `json:"filter" yaml:"filter"`
}

func vifCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vif",
		Short: "Variance inflation factors and stepwise collinearity filtering",
		Long: `Compute the VIF of every predictor, then filter the set stepwise.

  step: drop the variable with the largest VIF while it is at least --threshold.
  cor:  take the most correlated pair while its |r| is at least --cor-threshold
        and drop the member with the larger VIF.

Examples:
  envpred vif -i samples.csv
  envpred vif -i samples.csv --method cor --cor-threshold 0.7 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadSamples()
			if err != nil {
				return err
			}
			initial, err := selection.VIF(ds)
			if err != nil {
				return err
			}
			res := VIFResult{Method: a.cfg.VIF.Method, Initial: initial}
			switch a.cfg.VIF.Method {
			case config.VIFCor:
				res.Threshold = a.cfg.VIF.CorThreshold
				res.Filter, err = selection.VIFCor(ds, res.Threshold, a.logger)
			default:
				res.Threshold = a.cfg.VIF.Threshold
				res.Filter, err = selection.VIFStep(ds, res.Threshold, a.logger)
			}
			if err != nil {
				return err
			}
			return outputResult(cmd.OutOrStdout(), res, a.cfg.Output.Format)
		},
	}
	cmd.Flags().String("method", config.VIFStep, "Filter: step (by VIF) or cor (by pairwise correlation)")
	cmd.Flags().Float64("threshold", 10, "VIF threshold for the step filter")
	cmd.Flags().Float64("cor-threshold", 0.7, "|r| threshold for the cor filter")
	a.bind(cmd, merge(inputFlags(cmd), map[string]string{
		"method":        "vif.method",
		"threshold":     "vif.threshold",
		"cor-threshold": "vif.cor_threshold",
	}))
	return cmd
}
