package data

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"envpred/pkg/core"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "bio1, bio2,bio12\n1,2,3\n4,NA,6\n7,8\nx,1,2\n10,11,12\n")

	obs, logs := observer.New(zap.WarnLevel)
	ds, err := LoadCSV(path, zap.New(obs))
	require.NoError(t, err)

	assert.Equal(t, []string{"bio1", "bio2", "bio12"}, ds.Names)
	require.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []float64{1, 2, 3}, ds.Rows[0])
	assert.True(t, math.IsNaN(ds.Rows[1][1]))
	assert.Equal(t, []float64{10, 11, 12}, ds.Rows[2])
	assert.Equal(t, 2, logs.Len(), "short row and unparsable row are skipped")
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)

	_, err = LoadCSV(writeFile(t, ""), nil)
	assert.ErrorContains(t, err, "missing header")

	_, err = LoadCSV(writeFile(t, "a,,c\n1,2,3\n"), nil)
	assert.ErrorContains(t, err, "empty")

	_, err = LoadCSV(writeFile(t, "a,a\n1,2\n"), nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestStreamCSVEarlyStop(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("a,b\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString("1,2\n")
	}
	out := make(chan []float64)
	header, done, err := StreamCSV(writeFile(t, sb.String()), nil, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)

	<-out
	close(done)
	for range out {
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("device went away") }

func TestStreamStopsOnReadError(t *testing.T) {
	src := io.NopCloser(io.MultiReader(strings.NewReader("a,b\n1,2\n"), brokenReader{}))
	obs, logs := observer.New(zap.ErrorLevel)
	out := make(chan []float64)
	header, _, err := streamRecords(src, "broken", zap.New(obs), out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)

	var rows [][]float64
	timeout := time.After(5 * time.Second)
	for open := true; open; {
		select {
		case row, ok := <-out:
			if !ok {
				open = false
				break
			}
			rows = append(rows, row)
		case <-timeout:
			t.Fatal("stream did not end after a persistent read error")
		}
	}
	assert.Equal(t, [][]float64{{1, 2}}, rows)
	assert.Equal(t, 1, logs.FilterMessage("Stopping stream on read error").Len())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds, err := NewDataset([]string{"x", "y"}, [][]float64{{1.5, math.NaN()}, {-2, 3e6}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "x,y\n1.5,NA\n-2,3e+06\n", buf.String())

	back, err := LoadCSV(writeFile(t, buf.String()), nil)
	require.NoError(t, err)
	assert.Equal(t, ds.Names, back.Names)
	assert.True(t, math.IsNaN(back.Rows[0][1]))
	assert.Equal(t, 3e6, back.Rows[1][1])
}

func TestMatrixCSV(t *testing.T) {
	in := ",A,B,C\nA,1,0.5,-0.2\nB,0.5,1,0.1\nC,-0.2,0.1,1\n"
	m, err := ReadMatrixCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, m.Names())
	assert.Equal(t, -0.2, m.At(2, 0))

	var buf bytes.Buffer
	require.NoError(t, WriteMatrixCSV(&buf, m))
	assert.Equal(t, in, buf.String())

	_, err = ReadMatrixCSV(strings.NewReader(",A,B\nB,1,0\nA,0,1\n"))
	assert.ErrorIs(t, err, core.ErrMalformedMatrix)

	_, err = ReadMatrixCSV(strings.NewReader(",A,B\nA,1,0\n"))
	assert.ErrorIs(t, err, core.ErrMalformedMatrix)
}
