// Package config loads envpred settings. Values are layered, lowest first:
// built-in defaults, a YAML file, ENVPRED_* environment variables, and
// command-line flags bound with BindFlags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"envpred/pkg/dataprep"
	"envpred/pkg/model"
)

// EnvPrefix is prepended to every environment override, e.g.
// ENVPRED_CORRELATION_THRESHOLD=0.8.
const EnvPrefix = "ENVPRED"

// VIF filter methods.
const (
	VIFStep = "step"
	VIFCor  = "cor"
)

// Config is the full envpred configuration.
type Config struct {
	// Input is the CSV of sampled predictor values, one column per variable.
	Input string `mapstructure:"input" yaml:"input"`
	// Variables restricts the analysis to these columns; empty means all.
	Variables []string `mapstructure:"variables" yaml:"variables"`
	// Missing is the missing-value strategy: omit, mean or median.
	Missing string `mapstructure:"missing" yaml:"missing"`
	// LogTransform lists skewed variables to replace by log(1+x).
	LogTransform   []string `mapstructure:"log_transform" yaml:"log_transform"`
	DropDuplicates bool     `mapstructure:"drop_duplicates" yaml:"drop_duplicates"`

	Correlation Correlation `mapstructure:"correlation" yaml:"correlation"`
	VIF         VIF         `mapstructure:"vif" yaml:"vif"`
	PCA         PCA         `mapstructure:"pca" yaml:"pca"`
	Output      Output      `mapstructure:"output" yaml:"output"`
	Log         Log         `mapstructure:"log" yaml:"log"`
}

type Correlation struct {
	// Threshold flags pairs with |r| at or above it.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	// SubsetSize is k for the least-correlated subset search.
	SubsetSize int `mapstructure:"subset_size" yaml:"subset_size"`
	// Workers for the subset search; 0 uses GOMAXPROCS.
	Workers  int  `mapstructure:"workers" yaml:"workers"`
	Validate bool `mapstructure:"validate" yaml:"validate"`
}

type VIF struct {
	Threshold    float64 `mapstructure:"threshold" yaml:"threshold"`
	Method       string  `mapstructure:"method" yaml:"method"`
	CorThreshold float64 `mapstructure:"cor_threshold" yaml:"cor_threshold"`
}

type PCA struct {
	// Components to keep; 0 keeps all.
	Components        int     `mapstructure:"components" yaml:"components"`
	Rule              string  `mapstructure:"rule" yaml:"rule"`
	VarianceThreshold float64 `mapstructure:"variance_threshold" yaml:"variance_threshold"`
}

type Output struct {
	// Dir receives plots and written CSVs.
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Format string `mapstructure:"format" yaml:"format"`
	Plots  bool   `mapstructure:"plots" yaml:"plots"`
}

type Log struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Missing:     string(dataprep.Omit),
		Correlation: Correlation{Threshold: 0.7, Workers: 1},
		VIF:         VIF{Threshold: 10, Method: VIFStep, CorThreshold: 0.7},
		PCA:         PCA{Rule: model.KaiserRule, VarianceThreshold: 0.9},
		Output:      Output{Dir: ".", Format: "table"},
		Log:         Log{Level: "info"},
	}
}

// New returns a viper instance carrying the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("input", d.Input)
	v.SetDefault("variables", d.Variables)
	v.SetDefault("missing", d.Missing)
	v.SetDefault("log_transform", d.LogTransform)
	v.SetDefault("drop_duplicates", d.DropDuplicates)
	v.SetDefault("correlation.threshold", d.Correlation.Threshold)
	v.SetDefault("correlation.subset_size", d.Correlation.SubsetSize)
	v.SetDefault("correlation.workers", d.Correlation.Workers)
	v.SetDefault("correlation.validate", d.Correlation.Validate)
	v.SetDefault("vif.threshold", d.VIF.Threshold)
	v.SetDefault("vif.method", d.VIF.Method)
	v.SetDefault("vif.cor_threshold", d.VIF.CorThreshold)
	v.SetDefault("pca.components", d.PCA.Components)
	v.SetDefault("pca.rule", d.PCA.Rule)
	v.SetDefault("pca.variance_threshold", d.PCA.VarianceThreshold)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.plots", d.Output.Plots)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags maps command-line flags onto configuration keys. Flags the user
// did not set leave lower layers in effect.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			return fmt.Errorf("no flag %q to bind to %q", flag, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", flag, err)
		}
	}
	return nil
}

// Load reads the optional YAML file at path into v, then decodes and
// validates the merged configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if _, err := dataprep.ParseStrategy(c.Missing); err != nil {
		return err
	}
	if c.Correlation.Threshold <= 0 || c.Correlation.Threshold > 1 {
		return fmt.Errorf("correlation.threshold must be in (0, 1], got %g", c.Correlation.Threshold)
	}
	if c.Correlation.SubsetSize < 0 {
		return fmt.Errorf("correlation.subset_size must be >= 0, got %d", c.Correlation.SubsetSize)
	}
	if c.VIF.Threshold <= 0 {
		return fmt.Errorf("vif.threshold must be > 0, got %g", c.VIF.Threshold)
	}
	if c.VIF.CorThreshold <= 0 || c.VIF.CorThreshold > 1 {
		return fmt.Errorf("vif.cor_threshold must be in (0, 1], got %g", c.VIF.CorThreshold)
	}
	switch c.VIF.Method {
	case VIFStep, VIFCor:
	default:
		return fmt.Errorf("vif.method must be %q or %q, got %q", VIFStep, VIFCor, c.VIF.Method)
	}
	if c.PCA.Components < 0 {
		return fmt.Errorf("pca.components must be >= 0, got %d", c.PCA.Components)
	}
	switch c.PCA.Rule {
	case model.KaiserRule:
	case model.CumulativeRule:
		if c.PCA.VarianceThreshold <= 0 || c.PCA.VarianceThreshold > 1 {
			return fmt.Errorf("pca.variance_threshold must be in (0, 1], got %g", c.PCA.VarianceThreshold)
		}
	default:
		return fmt.Errorf("pca.rule must be %q or %q, got %q", model.KaiserRule, model.CumulativeRule, c.PCA.Rule)
	}
	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be table, json or yaml, got %q", c.Output.Format)
	}
	return nil
}
