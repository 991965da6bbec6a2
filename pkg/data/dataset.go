package data

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"envpred/pkg/core"
)

// Variable is one predictor: a name and its value at every sampled pixel.
type Variable struct {
	Name   string
	Values []float64
}

// Dataset is a table of sampled predictor values: one row per pixel, one
// column per variable. Every row has len(Names) values.
type Dataset struct {
	Names []string
	Rows  [][]float64
}

// NewDataset checks that names are unique and every row is aligned with them.
func NewDataset(names []string, rows [][]float64) (*Dataset, error) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", core.ErrInvalidArgument, n)
		}
		seen[n] = struct{}{}
	}
	for i, r := range rows {
		if len(r) != len(names) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", core.ErrInvalidArgument, i, len(r), len(names))
		}
	}
	return &Dataset{Names: names, Rows: rows}, nil
}

// FromVariables builds a Dataset from column vectors of equal length.
func FromVariables(vars ...Variable) (*Dataset, error) {
	if len(vars) == 0 {
		return &Dataset{}, nil
	}
	n := len(vars[0].Values)
	names := make([]string, len(vars))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(vars))
	}
	for j, v := range vars {
		if len(v.Values) != n {
			return nil, fmt.Errorf("%w: variable %q has %d values, want %d", core.ErrInvalidArgument, v.Name, len(v.Values), n)
		}
		names[j] = v.Name
		for i, x := range v.Values {
			rows[i][j] = x
		}
	}
	return NewDataset(names, rows)
}

func (d *Dataset) NumRows() int { return len(d.Rows) }
func (d *Dataset) NumVars() int { return len(d.Names) }

// Index returns the column of the named variable.
func (d *Dataset) Index(name string) (int, bool) {
	for i, n := range d.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Column copies column j.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		col[i] = r[j]
	}
	return col
}

// Variables returns every column as a named Variable.
func (d *Dataset) Variables() []Variable {
	out := make([]Variable, len(d.Names))
	for j, n := range d.Names {
		out[j] = Variable{Name: n, Values: d.Column(j)}
	}
	return out
}

// Select returns a new Dataset holding only the named variables, in the given
// order. This is how a selection result is applied back to the samples.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		j, ok := d.Index(n)
		if !ok {
			return nil, fmt.Errorf("%w: unknown variable %q", core.ErrInvalidArgument, n)
		}
		idx[k] = j
	}
	rows := make([][]float64, len(d.Rows))
	for i, r := range d.Rows {
		row := make([]float64, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		rows[i] = row
	}
	out := make([]string, len(names))
	copy(out, names)
	return &Dataset{Names: out, Rows: rows}, nil
}

// Dense copies the table into a rows x vars gonum matrix.
func (d *Dataset) Dense() *mat.Dense {
	r, c := d.NumRows(), d.NumVars()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(r, c, nil)
	for i, row := range d.Rows {
		m.SetRow(i, row)
	}
	return m
}
