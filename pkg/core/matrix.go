package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance bounds the asymmetry and diagonal drift accepted by Validate.
const DefaultTolerance = 1e-9

// CorrMatrix is a square, symmetric correlation matrix labeled by variable name.
// Only the upper triangle is stored; At(i, j) == At(j, i) by construction.
type CorrMatrix struct {
	names []string
	index map[string]int
	sym   *mat.SymDense
}

// NewCorrMatrix builds a labeled matrix from a nested slice (copies values).
// The slice must be len(names) x len(names) and symmetric within DefaultTolerance.
func NewCorrMatrix(names []string, values [][]float64) (*CorrMatrix, error) {
	n := len(names)
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d names but %d rows", ErrMalformedMatrix, n, len(values))
	}
	for i, row := range values {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformedMatrix, i, len(row), n)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(values[i][j]-values[j][i]) > DefaultTolerance {
				return nil, fmt.Errorf("%w: not symmetric at (%s, %s): %g != %g",
					ErrMalformedMatrix, names[i], names[j], values[i][j], values[j][i])
			}
		}
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		copy(data[i*n:(i+1)*n], values[i])
	}
	var sym *mat.SymDense
	if n > 0 {
		sym = mat.NewSymDense(n, data)
	}
	return newCorrMatrix(names, sym)
}

// FromSymDense wraps a gonum symmetric matrix (copies it).
func FromSymDense(names []string, s *mat.SymDense) (*CorrMatrix, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrMalformedMatrix)
	}
	if n := s.SymmetricDim(); n != len(names) {
		return nil, fmt.Errorf("%w: %d names for a %dx%d matrix", ErrMalformedMatrix, len(names), n, n)
	}
	c := mat.NewSymDense(s.SymmetricDim(), nil)
	c.CopySym(s)
	return newCorrMatrix(names, c)
}

func newCorrMatrix(names []string, sym *mat.SymDense) (*CorrMatrix, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrMalformedMatrix, name)
		}
		index[name] = i
	}
	cp := make([]string, len(names))
	copy(cp, names)
	return &CorrMatrix{names: cp, index: index, sym: sym}, nil
}

// N returns the number of variables.
func (m *CorrMatrix) N() int { return len(m.names) }

// Names returns a copy of the variable names in matrix order.
func (m *CorrMatrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Name returns the name of variable i.
func (m *CorrMatrix) Name(i int) string { return m.names[i] }

// Index returns the position of the named variable.
func (m *CorrMatrix) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// At returns element (i, j).
func (m *CorrMatrix) At(i, j int) float64 { return m.sym.At(i, j) }

// AbsAt returns |M[i][j]|.
func (m *CorrMatrix) AbsAt(i, j int) float64 { return math.Abs(m.sym.At(i, j)) }

// Get returns the correlation between two named variables.
func (m *CorrMatrix) Get(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: unknown variable %q", ErrInvalidArgument, a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: unknown variable %q", ErrInvalidArgument, b)
	}
	return m.sym.At(i, j), nil
}

// Sym returns the underlying gonum matrix. Callers must not modify it.
func (m *CorrMatrix) Sym() *mat.SymDense { return m.sym }

// Values returns a deep copy as a nested slice.
func (m *CorrMatrix) Values() [][]float64 {
	n := m.N()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = m.sym.At(i, j)
		}
	}
	return out
}

// Sub restricts the matrix to the named variables, in the given order.
func (m *CorrMatrix) Sub(names ...string) (*CorrMatrix, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		i, ok := m.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown variable %q", ErrInvalidArgument, name)
		}
		idx[k] = i
	}
	return m.permute(idx)
}

// Permute reorders rows and columns consistently: variable order[k] of m
// becomes variable k of the result.
func (m *CorrMatrix) Permute(order []int) (*CorrMatrix, error) {
	if len(order) != m.N() {
		return nil, fmt.Errorf("%w: permutation has %d entries, want %d", ErrInvalidArgument, len(order), m.N())
	}
	seen := make([]bool, m.N())
	for _, i := range order {
		if i < 0 || i >= m.N() || seen[i] {
			return nil, fmt.Errorf("%w: %v is not a permutation", ErrInvalidArgument, order)
		}
		seen[i] = true
	}
	return m.permute(order)
}

func (m *CorrMatrix) permute(idx []int) (*CorrMatrix, error) {
	n := len(idx)
	names := make([]string, n)
	var sym *mat.SymDense
	if n > 0 {
		sym = mat.NewSymDense(n, nil)
	}
	for a, i := range idx {
		names[a] = m.names[i]
		for b := a; b < n; b++ {
			sym.SetSym(a, b, m.sym.At(i, idx[b]))
		}
	}
	return newCorrMatrix(names, sym)
}

// MaxOffDiagonal returns the largest |r| off the diagonal and the pair holding it.
// Ties resolve to the first pair in row-major order of the upper triangle.
func (m *CorrMatrix) MaxOffDiagonal() (r float64, i, j int) {
	i, j = -1, -1
	for a := 0; a < m.N(); a++ {
		for b := a + 1; b < m.N(); b++ {
			if v := m.AbsAt(a, b); i < 0 || v > r {
				r, i, j = v, a, b
			}
		}
	}
	return r, i, j
}

// Validate checks the correlation-matrix invariants: unit diagonal and every
// entry finite and within [-1, 1]. Symmetry is guaranteed by construction.
func (m *CorrMatrix) Validate() error {
	for i := 0; i < m.N(); i++ {
		if d := m.sym.At(i, i); !(math.Abs(d-1) <= DefaultTolerance) {
			return fmt.Errorf("%w: diagonal entry %s is %g", ErrMalformedMatrix, m.names[i], d)
		}
		for j := i + 1; j < m.N(); j++ {
			v := m.sym.At(i, j)
			if math.IsNaN(v) || v < -1-DefaultTolerance || v > 1+DefaultTolerance {
				return fmt.Errorf("%w: entry (%s, %s) is %g", ErrMalformedMatrix, m.names[i], m.names[j], v)
			}
		}
	}
	return nil
}
