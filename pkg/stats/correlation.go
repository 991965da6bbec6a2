package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"envpred/pkg/core"
	"envpred/pkg/data"
)

// CorrelationMatrix computes the Pearson correlation matrix of all variables
// in d. The data must be free of NaN (see dataprep) and hold at least two rows.
func CorrelationMatrix(d *data.Dataset) (*core.CorrMatrix, error) {
	if d.NumVars() < 1 || d.NumRows() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows and 1 variable, got %dx%d",
			core.ErrInvalidArgument, d.NumRows(), d.NumVars())
	}
	var sym mat.SymDense
	stat.CorrelationMatrix(&sym, d.Dense(), nil)

	m, err := core.FromSymDense(d.Names, &sym)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("correlation of %d samples (constant or missing columns?): %w", d.NumRows(), err)
	}
	return m, nil
}

// Pair is one off-diagonal entry of a correlation matrix.
type Pair struct {
	A string  `json:"a" yaml:"a"`
	B string  `json:"b" yaml:"b"`
	R float64 `json:"r" yaml:"r"`
}

// HighPairs lists every pair with |r| >= threshold, strongest first.
func HighPairs(m *core.CorrMatrix, threshold float64) []Pair {
	var out []Pair
	for i := 0; i < m.N(); i++ {
		for j := i + 1; j < m.N(); j++ {
			if r := m.At(i, j); math.Abs(r) >= threshold {
				out = append(out, Pair{A: m.Name(i), B: m.Name(j), R: r})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].R) > math.Abs(out[b].R)
	})
	return out
}
