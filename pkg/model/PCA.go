package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"envpred/pkg/core"
	"envpred/pkg/data"
	"envpred/pkg/pipeline"
	"envpred/pkg/stats"
)

// Retention rules for choosing how many components to keep.
const (
	// KaiserRule keeps components whose eigenvalue is at least 1, i.e. that
	// explain more variance than a single standardized predictor.
	KaiserRule = "kaiser"
	// CumulativeRule keeps the fewest components whose cumulative proportion
	// of variance reaches a threshold.
	CumulativeRule = "cumulative"
)

var _ Projector = (*PCA)(nil)

// PCA on standardized predictors (correlation-matrix PCA, like prcomp with
// scale. = TRUE), computed by SVD through gonum's stat.PC.
type PCA struct {
	K          int         // components to keep; 0 keeps all
	Names      []string    // variable names, when fitted from a Dataset
	Components [][]float64 // K x p loadings, each a unit vector
	Explained  []float64   // eigenvalues (component variances), descending

	prep   *pipeline.Pipeline
	schema pipeline.Schema
	total  float64 // variance summed over all components, kept or not
}

// NewPCA creates and returns a new PCA model.
func NewPCA(k int) *PCA {
	return &PCA{K: k, prep: pipeline.NewPipeline(stats.NewStandardScaler())}
}

// FitDataset fits on a Dataset and records its variable names.
func (pca *PCA) FitDataset(d *data.Dataset) error {
	if err := pca.Fit(d.Rows); err != nil {
		return err
	}
	pca.Names = append([]string(nil), d.Names...)
	pca.schema = pipeline.Schema{FeatureNames: pca.Names}
	return nil
}

// Fit standardizes X and computes its principal components. Each component's
// sign is fixed so that its largest-magnitude loading is positive.
func (pca *PCA) Fit(X [][]float64) error {
	if len(X) < 2 {
		return errors.New("PCA needs at least 2 rows")
	}
	Z, err := pca.prep.FitTransform(X)
	if err != nil {
		return err
	}

	n, d := len(Z), len(Z[0])
	zm := mat.NewDense(n, d, nil)
	for i, row := range Z {
		zm.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(zm, nil); !ok {
		return errors.New("gonum stat.PC decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)
	pca.total = floats.Sum(vars)

	_, c := vecs.Dims()
	k := min(c, len(vars))
	if pca.K > 0 && pca.K < k {
		k = pca.K
	}

	pca.Components = make([][]float64, k)
	pca.Explained = make([]float64, k)
	for comp := 0; comp < k; comp++ {
		v := mat.Col(nil, comp, &vecs)
		orient(v)
		pca.Components[comp] = v
		pca.Explained[comp] = vars[comp]
	}
	pca.Names = nil
	return nil
}

// orient flips v so that its largest-magnitude entry is positive.
func orient(v []float64) {
	big := 0
	for j := range v {
		if math.Abs(v[j]) > math.Abs(v[big]) {
			big = j
		}
	}
	if v[big] < 0 {
		for j := range v {
			v[j] = -v[j]
		}
	}
}

// Transform projects the input data onto the principal components (scores).
func (pca *PCA) Transform(X [][]float64) ([][]float64, error) {
	if len(X) == 0 {
		return nil, errors.New("input data cannot be empty")
	}
	if pca.Components == nil {
		return nil, errors.New("PCA is not fitted")
	}
	d := len(pca.Components[0])
	if len(X[0]) != d {
		return nil, errors.New("feature count mismatch between input and training data")
	}

	Z := pca.prep.Transform(X)
	out := make([][]float64, len(Z))
	for i, z := range Z {
		t := make([]float64, len(pca.Components))
		for k, comp := range pca.Components {
			s := 0.0
			for j := 0; j < d; j++ {
				s += z[j] * comp[j]
			}
			t[k] = s
		}
		out[i] = t
	}
	return out, nil
}

// TransformDataset projects a Dataset whose columns match the fitted ones.
func (pca *PCA) TransformDataset(d *data.Dataset) ([][]float64, error) {
	if pca.Names != nil && !pca.schema.Matches(d.Names) {
		return nil, fmt.Errorf("%w: columns %v do not match fitted %v", core.ErrInvalidArgument, d.Names, pca.Names)
	}
	return pca.Transform(d.Rows)
}

// StdDev returns the standard deviation of each component.
func (pca *PCA) StdDev() []float64 {
	out := make([]float64, len(pca.Explained))
	for i, v := range pca.Explained {
		out[i] = math.Sqrt(v)
	}
	return out
}

// Proportion returns each component's share of the total variance, which
// is the sum of all component variances. Constant inputs contribute nothing
// to it, so the shares of a full fit always sum to 1.
func (pca *PCA) Proportion() []float64 {
	out := make([]float64, len(pca.Explained))
	if pca.total == 0 {
		return out
	}
	for i, v := range pca.Explained {
		out[i] = v / pca.total
	}
	return out
}

// Cumulative returns the running sum of Proportion.
func (pca *PCA) Cumulative() []float64 {
	out := pca.Proportion()
	for i := 1; i < len(out); i++ {
		out[i] += out[i-1]
	}
	return out
}

// Loadings returns the rotation matrix as p rows (variables) x K columns.
func (pca *PCA) Loadings() [][]float64 {
	if len(pca.Components) == 0 {
		return nil
	}
	p := len(pca.Components[0])
	out := make([][]float64, p)
	for j := range out {
		out[j] = make([]float64, len(pca.Components))
		for k, comp := range pca.Components {
			out[j][k] = comp[j]
		}
	}
	return out
}

// Retained returns how many leading components the rule keeps. The threshold
// is only used by CumulativeRule and must lie in (0, 1].
func (pca *PCA) Retained(rule string, threshold float64) (int, error) {
	switch rule {
	case KaiserRule:
		m := 0
		for _, v := range pca.Explained {
			if v >= 1 {
				m++
			}
		}
		return max(m, 1), nil
	case CumulativeRule:
		if threshold <= 0 || threshold > 1 {
			return 0, fmt.Errorf("%w: cumulative threshold %g not in (0, 1]", core.ErrInvalidArgument, threshold)
		}
		cum := pca.Cumulative()
		for i, c := range cum {
			if c >= threshold-1e-12 {
				return i + 1, nil
			}
		}
		return len(cum), nil
	}
	return 0, fmt.Errorf("%w: unknown retention rule %q", core.ErrInvalidArgument, rule)
}

// SuggestPredictors picks one representative variable per leading component:
// the not-yet-chosen variable with the largest absolute loading on it.
func (pca *PCA) SuggestPredictors(m int) ([]string, error) {
	if pca.Names == nil {
		return nil, errors.New("PCA was not fitted from a Dataset")
	}
	if m < 1 || m > len(pca.Components) {
		return nil, fmt.Errorf("%w: %d components requested, %d available", core.ErrInvalidArgument, m, len(pca.Components))
	}
	chosen := make(map[int]bool, m)
	out := make([]string, 0, m)
	for _, comp := range pca.Components[:m] {
		best := -1
		for j, v := range comp {
			if chosen[j] {
				continue
			}
			if best < 0 || math.Abs(v) > math.Abs(comp[best]) {
				best = j
			}
		}
		chosen[best] = true
		out = append(out, pca.Names[best])
	}
	return out, nil
}
