package dataprep

import (
	"fmt"
	"math"

	"envpred/pkg/core"
	"envpred/pkg/data"
)

// FeatureSelect selects columns by indices.
func FeatureSelect(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		selected := make([]float64, len(indices))
		for j, idx := range indices {
			selected[j] = row[idx]
		}
		out[i] = selected
	}
	return out
}

// LogTransform applies log(x+1) to each value. Useful for skewed
// precipitation layers before correlation.
func LogTransform(X []float64) []float64 {
	out := make([]float64, len(X))
	for i, v := range X {
		out[i] = math.Log1p(v)
	}
	return out
}

// LogTransformColumns applies LogTransform to the named variables and returns
// a new Dataset. d is not modified.
func LogTransformColumns(d *data.Dataset, names ...string) (*data.Dataset, error) {
	cols := make([]int, len(names))
	for k, n := range names {
		j, ok := d.Index(n)
		if !ok {
			return nil, fmt.Errorf("%w: unknown variable %q", core.ErrInvalidArgument, n)
		}
		cols[k] = j
	}
	out := &data.Dataset{Names: d.Names, Rows: make([][]float64, d.NumRows())}
	for i, row := range d.Rows {
		out.Rows[i] = append([]float64(nil), row...)
	}
	for _, j := range cols {
		for i, v := range LogTransform(d.Column(j)) {
			out.Rows[i][j] = v
		}
	}
	return out, nil
}
