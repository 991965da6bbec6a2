package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// IsNA reports whether a CSV cell is a missing-value marker.
func IsNA(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

// StreamCSV reads the header row of a sample table and then streams the data
// rows through out. Missing cells arrive as NaN. Malformed rows are logged and
// skipped; any other read error is logged and ends the stream. Close the
// returned done chan to stop early.
func StreamCSV(path string, logger *zap.Logger, out chan<- []float64) (header []string, done chan struct{}, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return streamRecords(file, path, logger, out)
}

func streamRecords(src io.ReadCloser, name string, logger *zap.Logger, out chan<- []float64) (header []string, done chan struct{}, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := csv.NewReader(bufio.NewReader(src))
	reader.TrimLeadingSpace = true
	header, err = reader.Read()
	if err != nil {
		src.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%s: missing header row", name)
		}
		return nil, nil, fmt.Errorf("%s: reading header: %w", name, err)
	}
	header = append([]string(nil), header...)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if header[i] == "" {
			src.Close()
			return nil, nil, fmt.Errorf("%s: header column %d is empty", name, i+1)
		}
	}
	reader.ReuseRecord = true
	done = make(chan struct{})

	go func() {
		defer src.Close()
		defer close(out)
		line := 1
		for {
			rec, err := reader.Read()
			line++
			if err == io.EOF {
				return
			}
			if err != nil {
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					logger.Warn("Skipping malformed record", zap.Int("line", line), zap.Error(err))
					continue
				}
				logger.Error("Stopping stream on read error", zap.String("source", name), zap.Int("line", line), zap.Error(err))
				return
			}

			row, err := parseRow(rec)
			if err != nil {
				logger.Warn("Skipping record due to parse error", zap.Int("line", line), zap.Error(err))
				continue
			}
			select {
			case <-done:
				return
			case out <- row:
			}
		}
	}()
	return header, done, nil
}

func parseRow(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for i, s := range rec {
		if IsNA(s) {
			row[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		row[i] = v
	}
	return row, nil
}

// LoadCSV reads a whole sample table into memory.
func LoadCSV(path string, logger *zap.Logger) (*Dataset, error) {
	rows := make(chan []float64, 256)
	header, _, err := StreamCSV(path, logger, rows)
	if err != nil {
		return nil, err
	}
	var X [][]float64
	for r := range rows {
		X = append(X, r)
	}
	return NewDataset(header, X)
}

// WriteCSV writes a Dataset in the format LoadCSV reads. NaN is written as NA.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names); err != nil {
		return err
	}
	rec := make([]string, d.NumVars())
	for _, r := range d.Rows {
		for j, v := range r {
			rec[j] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
