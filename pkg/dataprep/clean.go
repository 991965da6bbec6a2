package dataprep

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"envpred/pkg/core"
	"envpred/pkg/data"
	"envpred/pkg/stats"
)

// Strategy names a missing-value policy.
type Strategy string

const (
	Omit   Strategy = "omit"
	Mean   Strategy = "mean"
	Median Strategy = "median"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case Omit, Mean, Median:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown missing-value strategy %q", core.ErrInvalidArgument, s)
}

// HandleMissingValues applies the given strategy to every column.
func HandleMissingValues(d *data.Dataset, s Strategy, logger *zap.Logger) (*data.Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch s {
	case Omit:
		out := DropNA(d)
		if dropped := d.NumRows() - out.NumRows(); dropped > 0 {
			logger.Info("Dropped rows with missing values",
				zap.Int("dropped", dropped), zap.Int("kept", out.NumRows()))
		}
		return out, nil
	case Mean, Median:
		return Impute(d, s), nil
	}
	return nil, fmt.Errorf("%w: unknown missing-value strategy %q", core.ErrInvalidArgument, s)
}

// DropNA keeps only rows without NaN.
func DropNA(d *data.Dataset) *data.Dataset {
	out := &data.Dataset{Names: d.Names}
	for _, row := range d.Rows {
		if !hasNaN(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DropConstant removes columns with zero variance, whose correlation with
// anything is undefined. It returns the cleaned Dataset and the dropped names.
func DropConstant(d *data.Dataset) (*data.Dataset, []string, error) {
	var keep, dropped []string
	for j, name := range d.Names {
		col := d.Column(j)
		lo, hi := stats.MinMax(col)
		if len(col) < 2 || lo == hi {
			dropped = append(dropped, name)
			continue
		}
		keep = append(keep, name)
	}
	if len(dropped) == 0 {
		return d, nil, nil
	}
	out, err := d.Select(keep...)
	return out, dropped, err
}

// DropDuplicates removes duplicate rows from the dataset.
func DropDuplicates(d *data.Dataset) *data.Dataset {
	seen := make(map[string]struct{})
	out := &data.Dataset{Names: d.Names}
	for _, row := range d.Rows {
		key := fmt.Sprint(row)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
