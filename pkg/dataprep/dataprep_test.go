package dataprep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"envpred/pkg/core"
	"envpred/pkg/data"
)

var nan = math.NaN()

func sample(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.NewDataset([]string{"bio1", "bio12", "bio15"}, [][]float64{
		{1, 10, 5},
		{2, nan, 5},
		{3, 30, 5},
		{nan, 40, 5},
		{6, 50, 5},
	})
	require.NoError(t, err)
	return ds
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"omit", "mean", "median"} {
		st, err := ParseStrategy(s)
		require.NoError(t, err)
		assert.Equal(t, Strategy(s), st)
	}
	_, err := ParseStrategy("knn")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDropNA(t *testing.T) {
	out := DropNA(sample(t))
	assert.Equal(t, [][]float64{{1, 10, 5}, {3, 30, 5}, {6, 50, 5}}, out.Rows)
}

func TestImpute(t *testing.T) {
	mean := Impute(sample(t), Mean)
	assert.Equal(t, 3.0, mean.Rows[3][0])
	assert.Equal(t, 32.5, mean.Rows[1][1])

	med := Impute(sample(t), Median)
	assert.Equal(t, 2.5, med.Rows[3][0])
	assert.Equal(t, 35.0, med.Rows[1][1])

	ds := sample(t)
	Impute(ds, Mean)
	assert.True(t, math.IsNaN(ds.Rows[1][1]), "input is not modified")

	allNA, err := data.NewDataset([]string{"x"}, [][]float64{{nan}, {nan}})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(Impute(allNA, Mean).Rows[0][0]))
}

func TestHandleMissingValues(t *testing.T) {
	obs, logs := observer.New(zap.InfoLevel)
	out, err := HandleMissingValues(sample(t), Omit, zap.New(obs))
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["dropped"])

	out, err = HandleMissingValues(sample(t), Median, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, out.NumRows())

	_, err = HandleMissingValues(sample(t), Strategy("drop"), nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDropConstant(t *testing.T) {
	out, dropped, err := DropConstant(DropNA(sample(t)))
	require.NoError(t, err)
	assert.Equal(t, []string{"bio15"}, dropped)
	assert.Equal(t, []string{"bio1", "bio12"}, out.Names)

	same, dropped, err := DropConstant(out)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Same(t, out, same)
}

func TestDropDuplicates(t *testing.T) {
	ds, err := data.NewDataset([]string{"a", "b"}, [][]float64{{1, 2}, {1, 2}, {2, 1}, {1, 2}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {2, 1}}, DropDuplicates(ds).Rows)
}

func TestFeatureSelect(t *testing.T) {
	X := [][]float64{{1, 2, 3}, {4, 5, 6}}
	assert.Equal(t, [][]float64{{3, 1}, {6, 4}}, FeatureSelect(X, []int{2, 0}))
}

func TestLogTransform(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, math.Log(2), math.Log(11)}, LogTransform([]float64{0, 1, 10}), 1e-12)

	ds, err := data.NewDataset([]string{"bio1", "bio12"}, [][]float64{{5, 0}, {6, math.E - 1}})
	require.NoError(t, err)
	out, err := LogTransformColumns(ds, "bio12")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, out.Column(0))
	assert.InDeltaSlice(t, []float64{0, 1}, out.Column(1), 1e-12)
	assert.Equal(t, math.E-1, ds.Rows[1][1])

	_, err = LogTransformColumns(ds, "bio99")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
