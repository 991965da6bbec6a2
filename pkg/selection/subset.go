package selection

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"envpred/pkg/core"
)

// Result is the least-correlated subset found by a Selector.
type Result struct {
	Names   []string `json:"names" yaml:"names"`
	Indices []int    `json:"indices" yaml:"indices"`
	// Score is the largest |r| between any two members of the subset.
	Score float64 `json:"score" yaml:"score"`
	// Evaluated is the number of candidate subsets examined, C(n, k).
	Evaluated int `json:"evaluated" yaml:"evaluated"`
}

// Selector finds the k variables whose worst pairwise correlation is as small
// in magnitude as possible.
//
// The search is exhaustive: all C(n, k) combinations are scored, each in
// O(k²) lookups, so cost grows exponentially with n. It is meant for the
// handful of predictors in a bioclimatic stack (n ≤ ~20), not for wide data.
type Selector struct {
	Workers  int
	Validate bool
	logger   *zap.Logger
}

// Option functional config
type Option func(*Selector)

// WithWorkers splits the enumeration across n goroutines. n <= 0 uses GOMAXPROCS.
// The result is identical to the sequential scan, ties included.
func WithWorkers(n int) Option {
	return func(s *Selector) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		s.Workers = n
	}
}

// WithValidation makes Select reject matrices that fail CorrMatrix.Validate.
func WithValidation(v bool) Option { return func(s *Selector) { s.Validate = v } }

func WithLogger(l *zap.Logger) Option { return func(s *Selector) { s.logger = l } }

// NewSelector returns a sequential, non-validating selector by default.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{Workers: 1}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// LeastCorrelated runs a default Selector.
func LeastCorrelated(m *core.CorrMatrix, k int) (Result, error) {
	return NewSelector().Select(m, k)
}

// Select returns the k-subset minimizing the maximum absolute pairwise
// correlation among its members. Among equally good subsets the first in
// lexicographic order of m's variable order wins.
func (s *Selector) Select(m *core.CorrMatrix, k int) (Result, error) {
	n := m.N()
	if n < 2 {
		return Result{}, fmt.Errorf("%w: need at least 2 variables, got %d", core.ErrInvalidArgument, n)
	}
	if k < 2 || k > n {
		return Result{}, fmt.Errorf("%w: subset size k=%d must be in [2, %d]", core.ErrInvalidArgument, k, n)
	}
	if s.Validate {
		if err := m.Validate(); err != nil {
			return Result{}, err
		}
	}

	abs := absTable(m)
	total := NewCombinations(n, k).Count()
	workers := min(max(s.Workers, 1), total)

	start := time.Now()
	var best candidate
	if workers == 1 {
		best = scan(abs, n, k, 0, total)
	} else {
		best = scanParallel(abs, n, k, total, workers)
	}
	s.logger.Debug("Least-correlated subset search finished",
		zap.Int("n", n),
		zap.Int("k", k),
		zap.Int("candidates", total),
		zap.Int("workers", workers),
		zap.Float64("score", best.score),
		zap.Duration("elapsed", time.Since(start)))

	names := make([]string, k)
	for i, idx := range best.comb {
		names[i] = m.Name(idx)
	}
	return Result{Names: names, Indices: best.comb, Score: best.score, Evaluated: total}, nil
}

// absTable copies |M| into a flat row-major slice for cache-friendly lookups.
// An undefined (NaN) correlation counts as +Inf, so a subset containing that
// pair is never preferred over one with only known correlations.
func absTable(m *core.CorrMatrix) []float64 {
	n := m.N()
	t := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.AbsAt(i, j)
			if math.IsNaN(v) {
				v = math.Inf(1)
			}
			t[i*n+j] = v
		}
	}
	return t
}

type candidate struct {
	comb  []int
	score float64
}

// scan scores the combinations with ranks [from, to) and keeps the first one
// with the strictly smallest score.
func scan(abs []float64, n, k, from, to int) candidate {
	gen := NewCombinations(n, k)
	if err := gen.Seek(from); err != nil {
		panic(err)
	}
	best := candidate{score: math.Inf(1)}
	cur := make([]int, k)
	for r := from; r < to && gen.Next(); r++ {
		cur = gen.Combination(cur)
		if sc, ok := worstPair(abs, n, cur, best.score); ok || best.comb == nil {
			best.score = sc
			best.comb = append(best.comb[:0], cur...)
		}
	}
	return best
}

// worstPair returns the largest |r| among members of comb. It gives up as soon
// as that reaches bound, since such a subset cannot strictly improve on it.
func worstPair(abs []float64, n int, comb []int, bound float64) (float64, bool) {
	worst := 0.0
	for a := 0; a < len(comb); a++ {
		row := abs[comb[a]*n:]
		for b := a + 1; b < len(comb); b++ {
			if v := row[comb[b]]; v > worst {
				worst = v
				if worst >= bound {
					return worst, false
				}
			}
		}
	}
	return worst, worst < bound
}

// scanParallel splits the rank range into contiguous chunks, one per worker,
// and reduces in chunk order so the lexicographically first optimum wins.
func scanParallel(abs []float64, n, k, total, workers int) candidate {
	results := make([]candidate, workers)
	per := (total + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		from := w * per
		to := min(from+per, total)
		if from >= to {
			results[w] = candidate{score: math.Inf(1)}
			continue
		}
		wg.Add(1)
		go func(w, from, to int) {
			defer wg.Done()
			results[w] = scan(abs, n, k, from, to)
		}(w, from, to)
	}
	wg.Wait()

	best := results[0]
	for _, c := range results[1:] {
		if c.score < best.score {
			best = c
		}
	}
	return best
}
