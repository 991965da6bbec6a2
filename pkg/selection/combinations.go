package selection

import (
	"fmt"

	"gonum.org/v1/gonum/stat/combin"

	"envpred/pkg/core"
)

// Combinations generates the k-element combinations of {0, ..., n-1} one at a
// time in lexicographic order: [0 1 2], [0 1 3], ..., [n-3 n-2 n-1].
// The sequence is finite and can be restarted with Reset or entered at any
// rank with Seek.
type Combinations struct {
	n, k    int
	cur     []int
	started bool
	done    bool
}

// NewCombinations returns a generator positioned before the first combination.
// It panics if k < 0 or k > n, following combin.NewCombinationGenerator.
func NewCombinations(n, k int) *Combinations {
	if k < 0 || k > n {
		panic(fmt.Sprintf("selection: bad combination size k=%d for n=%d", k, n))
	}
	return &Combinations{n: n, k: k, cur: make([]int, k)}
}

// Count returns C(n, k).
func (c *Combinations) Count() int { return combin.Binomial(c.n, c.k) }

// Reset rewinds the generator to before the first combination.
func (c *Combinations) Reset() {
	c.started, c.done = false, false
}

// Next advances to the next combination and reports whether one exists.
func (c *Combinations) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		for i := range c.cur {
			c.cur[i] = i
		}
		return true
	}
	i := c.k - 1
	for i >= 0 && c.cur[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		c.done = true
		return false
	}
	c.cur[i]++
	for j := i + 1; j < c.k; j++ {
		c.cur[j] = c.cur[j-1] + 1
	}
	return true
}

// Combination copies the current combination into dst, allocating if dst is nil.
func (c *Combinations) Combination(dst []int) []int {
	if !c.started || c.done {
		panic("selection: Combination called without a successful Next")
	}
	if dst == nil {
		dst = make([]int, c.k)
	}
	copy(dst, c.cur)
	return dst
}

// Seek positions the generator so that the next call to Next yields the
// combination with the given lexicographic rank.
func (c *Combinations) Seek(rank int) error {
	if rank < 0 || rank >= c.Count() {
		return fmt.Errorf("%w: rank %d outside [0, %d)", core.ErrInvalidArgument, rank, c.Count())
	}
	if _, err := Unrank(c.cur, c.n, c.k, rank); err != nil {
		return err
	}
	// Step back one so Next lands on rank itself.
	c.started, c.done = true, false
	if rank == 0 {
		c.started = false
		return nil
	}
	c.retreat()
	return nil
}

// retreat moves cur to its lexicographic predecessor. cur must not be the first.
func (c *Combinations) retreat() {
	i := c.k - 1
	for i > 0 && c.cur[i] == c.cur[i-1]+1 {
		i--
	}
	c.cur[i]--
	for j := i + 1; j < c.k; j++ {
		c.cur[j] = c.n - c.k + j
	}
}

// Unrank writes the combination of lexicographic rank r into dst.
func Unrank(dst []int, n, k, r int) ([]int, error) {
	total := combin.Binomial(n, k)
	if r < 0 || r >= total {
		return nil, fmt.Errorf("%w: rank %d outside [0, %d)", core.ErrInvalidArgument, r, total)
	}
	if dst == nil {
		dst = make([]int, k)
	}
	x := 0
	for i := 0; i < k; i++ {
		for {
			// combinations that put x at position i
			c := combin.Binomial(n-x-1, k-i-1)
			if r < c {
				break
			}
			r -= c
			x++
		}
		dst[i] = x
		x++
	}
	return dst, nil
}
