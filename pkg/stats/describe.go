package stats

import (
	"math"

	"envpred/pkg/data"
)

// Summary is the per-variable overview printed before an analysis,
// in the spirit of R's summary().
type Summary struct {
	Name   string  `json:"name" yaml:"name"`
	N      int     `json:"n" yaml:"n"`
	NA     int     `json:"na" yaml:"na"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
	SD     float64 `json:"sd" yaml:"sd"`
}

// Describe summarizes every variable, ignoring NaN cells.
func Describe(d *data.Dataset) []Summary {
	out := make([]Summary, d.NumVars())
	for j, name := range d.Names {
		col := d.Column(j)
		obs := make([]float64, 0, len(col))
		for _, v := range col {
			if !math.IsNaN(v) {
				obs = append(obs, v)
			}
		}
		min, max := MinMax(obs)
		out[j] = Summary{
			Name:   name,
			N:      len(obs),
			NA:     len(col) - len(obs),
			Min:    min,
			Q1:     Percentile(obs, 25),
			Median: Median(obs),
			Mean:   Mean(obs),
			Q3:     Percentile(obs, 75),
			Max:    max,
			SD:     StdDev(obs),
		}
	}
	return out
}
