package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"envpred/pkg/core"
)

// ReadMatrixCSV parses a labeled square matrix: a header row whose first cell
// is ignored followed by the variable names, then one row per variable that
// starts with its name. Row names must match the header order.
func ReadMatrixCSV(r io.Reader) (*core.CorrMatrix, error) {
	recs, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty matrix file", core.ErrMalformedMatrix)
	}
	names := make([]string, 0, len(recs[0])-1)
	for _, n := range recs[0][1:] {
		names = append(names, strings.TrimSpace(n))
	}
	body := recs[1:]
	if len(body) != len(names) {
		return nil, fmt.Errorf("%w: %d columns but %d rows", core.ErrMalformedMatrix, len(names), len(body))
	}
	values := make([][]float64, len(body))
	for i, rec := range body {
		if got := strings.TrimSpace(rec[0]); got != names[i] {
			return nil, fmt.Errorf("%w: row %d is %q, want %q", core.ErrMalformedMatrix, i+1, got, names[i])
		}
		row := make([]float64, len(rec)-1)
		for j, s := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: (%s, %s): %v", core.ErrMalformedMatrix, names[i], names[j], err)
			}
			row[j] = v
		}
		values[i] = row
	}
	return core.NewCorrMatrix(names, values)
}

// WriteMatrixCSV writes m in the format ReadMatrixCSV reads.
func WriteMatrixCSV(w io.Writer, m *core.CorrMatrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, m.Names()...)); err != nil {
		return err
	}
	for i, row := range m.Values() {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, m.Name(i))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
