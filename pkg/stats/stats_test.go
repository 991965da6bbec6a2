package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envpred/pkg/core"
	"envpred/pkg/data"
)

func TestMoments(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 5.0, Mean(x))
	assert.InDelta(t, 32.0/7, Variance(x), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7), StdDev(x), 1e-12)
	assert.Equal(t, 4.5, Median(x))

	lo, hi := MinMax(x)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 9.0, hi)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance([]float64{3}))
}

func TestPercentile(t *testing.T) {
	x := []float64{5, 1, 4, 2, 3}
	tests := []struct {
		p, want float64
	}{
		{0, 1}, {25, 2}, {50, 3}, {90, 4.6}, {100, 5}, {-5, 1}, {120, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(x, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, x, "input is not reordered")
}

// pearson is an independent single-pass Pearson coefficient used to
// cross-check CorrelationMatrix.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	return (n*sumXY - sumX*sumY) / math.Sqrt((n*sumX2-sumX*sumX)*(n*sumY2-sumY*sumY))
}

func sample(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.FromVariables(
		data.Variable{Name: "a", Values: []float64{1, 2, 3, 4, 5, 6}},
		data.Variable{Name: "b", Values: []float64{2, 4.1, 5.9, 8.2, 9.9, 12}},
		data.Variable{Name: "c", Values: []float64{3, 1, 4, 1, 5, 9}},
	)
	require.NoError(t, err)
	return ds
}

func TestCorrelationMatrix(t *testing.T) {
	ds := sample(t)
	m, err := CorrelationMatrix(ds)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1, m.At(i, i), 1e-12)
		for j := 0; j < 3; j++ {
			assert.InDelta(t, pearson(ds.Column(i), ds.Column(j)), m.At(i, j), 1e-9)
		}
	}
}

func TestCorrelationMatrixErrors(t *testing.T) {
	ds, err := data.NewDataset([]string{"a", "b"}, [][]float64{{1, 2}})
	require.NoError(t, err)
	_, err = CorrelationMatrix(ds)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	ds, err = data.NewDataset([]string{"a", "k"}, [][]float64{{1, 7}, {2, 7}, {3, 7}})
	require.NoError(t, err)
	_, err = CorrelationMatrix(ds)
	assert.ErrorIs(t, err, core.ErrMalformedMatrix, "constant column yields NaN")
}

func TestHighPairs(t *testing.T) {
	m, err := core.NewCorrMatrix([]string{"A", "B", "C"}, [][]float64{
		{1, -0.8, 0.75},
		{-0.8, 1, 0.2},
		{0.75, 0.2, 1},
	})
	require.NoError(t, err)

	pairs := HighPairs(m, 0.7)
	assert.Equal(t, []Pair{{A: "A", B: "B", R: -0.8}, {A: "A", B: "C", R: 0.75}}, pairs)
	assert.Empty(t, HighPairs(m, 0.9))
}

func TestDescribe(t *testing.T) {
	ds, err := data.NewDataset([]string{"x"}, [][]float64{{1}, {math.NaN()}, {3}, {5}})
	require.NoError(t, err)

	s := Describe(ds)
	require.Len(t, s, 1)
	assert.Equal(t, Summary{Name: "x", N: 3, NA: 1, Min: 1, Q1: 2, Median: 3, Mean: 3, Q3: 4, Max: 5, SD: 2}, s[0])
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10, 4}, {2, 20, 4}, {3, 30, 4}}
	s := NewStandardScaler()
	assert.Equal(t, X, s.Transform(X), "unfitted scaler is a no-op")

	Z, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 20, 4}, s.Mean)
	assert.Equal(t, []float64{1, 10, 1}, s.Std)
	assert.Equal(t, [][]float64{{-1, -1, 0}, {0, 0, 0}, {1, 1, 0}}, Z)

	_, err = s.FitTransform(nil)
	assert.Error(t, err)
}
