package model

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned by Fit when the design matrix cannot be factorized.
var ErrSingular = errors.New("design matrix is singular")

// rankTol is the relative singular value below which a design column is
// treated as linearly dependent on the others.
const rankTol = 1e-12

var _ Model = (*LinearRegression)(nil)

// LinearRegression is ordinary least squares with an intercept, solved by QR.
// Rank-deficient designs (perfectly collinear predictors) fall back to the
// minimum-norm solution from an SVD, so R² stays meaningful.
type LinearRegression struct {
	W []float64 // weights
	b float64   // bias
}

// NewLinearRegression returns an unfitted OLS model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Fit solves min ||[1 X] beta - y||. It needs more rows than columns.
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("input data cannot be empty")
	}
	if len(y) != n {
		return fmt.Errorf("got %d rows but %d targets", n, len(y))
	}
	p := len(X[0])
	if n <= p+1 {
		return fmt.Errorf("need more than %d rows to fit %d predictors, got %d", p+1, p, n)
	}

	A := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		A.Set(i, 0, 1)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}
	beta, err := solve(A, mat.NewVecDense(n, y))
	if err != nil {
		return err
	}

	m.b = beta.AtVec(0)
	m.W = make([]float64, p)
	for j := range m.W {
		m.W[j] = beta.AtVec(j + 1)
	}
	return nil
}

func solve(A *mat.Dense, y *mat.VecDense) (*mat.VecDense, error) {
	var beta mat.VecDense
	err := beta.SolveVec(A, y)
	if err == nil {
		return &beta, nil
	}
	var cond mat.Condition
	if !errors.As(err, &cond) {
		return nil, err
	}

	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDThin) {
		return nil, fmt.Errorf("%w (condition number %g)", ErrSingular, float64(cond))
	}
	var lsq mat.VecDense
	svd.SolveVecTo(&lsq, y, svd.Rank(rankTol))
	return &lsq, nil
}

// Predict returns predictions for rows in X (rows of features).
// This function uses goroutines and a WaitGroup to parallelize predictions across CPU cores.
func (m *LinearRegression) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	pred := make([]float64, len(X))
	var wg sync.WaitGroup

	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				sum := m.b
				for j, v := range X[i] {
					sum += m.W[j] * v
				}
				pred[i] = sum
			}
		}(s, e)
	}
	wg.Wait()
	return pred
}

// Score returns R² of the fitted model on (X, y).
func (m *LinearRegression) Score(X [][]float64, y []float64) float64 {
	return R2(y, m.Predict(X))
}

// Bias returns the current bias value of the model.
func (m *LinearRegression) Bias() float64 {
	return m.b
}
