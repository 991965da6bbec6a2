package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"envpred/pkg/model"
	"envpred/pkg/plotting"
)

// PCAResult is the output of the pca command.
type PCAResult struct {
	Variables  []string    `json:"variables" yaml:"variables"`
	StdDev     []float64   `json:"sdev" yaml:"sdev"`
	Proportion []float64   `json:"proportion" yaml:"proportion"`
	Cumulative []float64   `json:"cumulative" yaml:"cumulative"`
	Loadings   [][]float64 `json:"loadings" yaml:"loadings"` // variables x components
	Rule       string      `json:"rule" yaml:"rule"`
	Retained   int         `json:"retained" yaml:"retained"`
	Suggested  []string    `json:"suggested" yaml:"suggested"`
	Files      []string    `json:"files,omitempty" yaml:"files,omitempty"`
}

func pcaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pca",
		Short: "Principal components of the standardized predictors",
		Long: `Run PCA on the standardized predictors, decide how many components to
retain and suggest one representative variable per retained component.

  kaiser:     keep components with eigenvalue >= 1.
  cumulative: keep the fewest components explaining --variance of the total.

Examples:
  envpred pca -i samples.csv
  envpred pca -i samples.csv --rule cumulative --variance 0.9 --plots --out-dir plots`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadSamples()
			if err != nil {
				return err
			}
			pca := model.NewPCA(a.cfg.PCA.Components)
			if err := pca.FitDataset(ds); err != nil {
				return err
			}
			retained, err := pca.Retained(a.cfg.PCA.Rule, a.cfg.PCA.VarianceThreshold)
			if err != nil {
				return err
			}
			retained = min(retained, len(pca.Components))
			suggested, err := pca.SuggestPredictors(retained)
			if err != nil {
				return err
			}
			res := PCAResult{
				Variables:  pca.Names,
				StdDev:     pca.StdDev(),
				Proportion: pca.Proportion(),
				Cumulative: pca.Cumulative(),
				Loadings:   pca.Loadings(),
				Rule:       a.cfg.PCA.Rule,
				Retained:   retained,
				Suggested:  suggested,
			}

			if a.cfg.Output.Plots {
				scree := a.outPath("scree.png")
				if err := plotting.ScreePlot(pca, scree); err != nil {
					return err
				}
				res.Files = append(res.Files, scree)
				if len(pca.Components) >= 2 {
					scores, err := pca.TransformDataset(ds)
					if err != nil {
						return err
					}
					biplot := a.outPath("biplot.png")
					if err := plotting.Biplot(pca, scores, biplot); err != nil {
						return err
					}
					res.Files = append(res.Files, biplot)
				}
				a.logger.Info("Saved PCA plots", zap.Strings("files", res.Files))
			}
			return outputResult(cmd.OutOrStdout(), res, a.cfg.Output.Format)
		},
	}
	cmd.Flags().Int("components", 0, "Components to compute; 0 keeps all")
	cmd.Flags().String("rule", model.KaiserRule, "Retention rule: kaiser or cumulative")
	cmd.Flags().Float64("variance", 0.9, "Cumulative variance to reach with --rule cumulative")
	cmd.Flags().Bool("plots", false, "Write scree.png and biplot.png to the output directory")
	cmd.Flags().String("out-dir", ".", "Directory for generated plots")
	a.bind(cmd, merge(inputFlags(cmd), map[string]string{
		"components": "pca.components",
		"rule":       "pca.rule",
		"variance":   "pca.variance_threshold",
		"plots":      "output.plots",
		"out-dir":    "output.dir",
	}))
	return cmd
}
