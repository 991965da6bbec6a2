// envpred screens environmental predictors for collinearity before species
// distribution modelling.
//
// Usage:
//
//	envpred describe -i samples.csv
//	envpred corr -i samples.csv --threshold 0.7 --heatmap
//	envpred select -i samples.csv -k 5 -o json
//	envpred select --matrix corr.csv -k 5
//	envpred vif -i samples.csv --method cor
//	envpred pca -i samples.csv --rule cumulative --plots
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"envpred/pkg/config"
)

var version = "dev"

// app is the state shared by every subcommand: the layered configuration and
// the logger built from it.
type app struct {
	v        *viper.Viper
	cfgFile  string
	verbose  bool
	cfg      *config.Config
	logger   *zap.Logger
	bindings map[*cobra.Command]map[string]string
}

func newApp() *app {
	return &app{
		v:        config.New(),
		logger:   zap.NewNop(),
		bindings: make(map[*cobra.Command]map[string]string),
	}
}

// bind records which of cmd's flags override which configuration keys. The
// binding is applied only when cmd is the command being run.
func (a *app) bind(cmd *cobra.Command, keys map[string]string) {
	a.bindings[cmd] = keys
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	keys := map[string]string{"output": "output.format"}
	for flag, key := range a.bindings[cmd] {
		keys[flag] = key
	}
	if err := config.BindFlags(a.v, cmd.Flags(), keys); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	a.logger.Debug("Configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config_file", a.v.ConfigFileUsed()),
		zap.String("input", cfg.Input))
	return nil
}

func newRootCmd() *cobra.Command {
	a := newApp()
	rootCmd := &cobra.Command{
		Use:   "envpred",
		Short: "Screen environmental predictors for collinearity",
		Long: `envpred inspects sampled environmental predictors (for example the 19
WorldClim bioclimatic variables) before species distribution modelling.

It reports Pearson correlations, finds the k variables whose strongest pairwise
correlation is smallest, filters variables by variance inflation factor and
summarizes principal components.

Settings come from built-in defaults, a YAML file (--config), ENVPRED_*
environment variables and flags, in increasing order of precedence.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	// Add subcommands
	rootCmd.AddCommand(describeCmd(a))
	rootCmd.AddCommand(corrCmd(a))
	rootCmd.AddCommand(selectCmd(a))
	rootCmd.AddCommand(vifCmd(a))
	rootCmd.AddCommand(pcaCmd(a))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
