package dataprep

import (
	"math"

	"envpred/pkg/data"
	"envpred/pkg/stats"
)

// ---------- Simple Imputation Methods ----------

// Impute replaces NaN cells with the column mean or median of the observed
// values. A column with no observed values is left untouched.
func Impute(d *data.Dataset, s Strategy) *data.Dataset {
	fill := make([]float64, d.NumVars())
	for j := range d.Names {
		obs := observed(d.Column(j))
		switch {
		case len(obs) == 0:
			fill[j] = math.NaN()
		case s == Median:
			fill[j] = stats.Median(obs)
		default:
			fill[j] = stats.Mean(obs)
		}
	}

	out := &data.Dataset{Names: d.Names, Rows: make([][]float64, d.NumRows())}
	for i, row := range d.Rows {
		r := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = fill[j]
			}
			r[j] = v
		}
		out.Rows[i] = r
	}
	return out
}

func observed(col []float64) []float64 {
	out := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
