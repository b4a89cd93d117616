package crdt

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Allocator generates identifiers between two bounds using the LSEQ strategy.
//
// Each depth gets a direction the first time it is used: boundary+ allocates
// close to the lower bound, boundary- close to the upper bound. The choice is
// kept for the lifetime of the allocator, so that a run of insertions at the
// same depth keeps clustering on the same side and leaves room for the next one.
type Allocator struct {
	origin   string
	clock    uint64
	boundary uint64
	maxDepth int

	rng *rand.Rand

	// strategy maps a depth to its direction, true meaning boundary+.
	strategy map[int]bool
}

// NewAllocator returns an allocator producing identifiers for origin.
func NewAllocator(origin string, cfg Config) *Allocator {
	cfg = cfg.withDefaults()

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Allocator{
		origin:   origin,
		boundary: cfg.Boundary,
		maxDepth: cfg.MaxDepth,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		strategy: make(map[int]bool),
	}
}

// Origin returns the replica the allocator produces identifiers for.
func (a *Allocator) Origin() string {
	return a.origin
}

// Clock returns the number of identifiers allocated so far.
func (a *Allocator) Clock() uint64 {
	return a.clock
}

// Alloc returns an identifier whose path lies strictly between lower and upper.
// A nil bound stands for the matching sentinel.
func (a *Allocator) Alloc(lower, upper []int64) (Identifier, error) {
	if lower == nil {
		lower = Start.Path
	}
	if upper == nil {
		upper = End.Path
	}

	if ComparePaths(lower, upper) >= 0 {
		return Identifier{}, fmt.Errorf("%w: bounds %v and %v are not ordered", ErrInvalidAllocation, lower, upper)
	}

	depth, interval := 0, uint64(0)
	for interval < 1 {
		depth++
		if depth > a.maxDepth {
			return Identifier{}, fmt.Errorf("%w: no room between %v and %v within depth %d", ErrInvalidAllocation, lower, upper, a.maxDepth)
		}

		lo := digit(lower, depth-1, math.MinInt64)
		hi := digit(upper, depth-1, math.MaxInt64)
		if hi > lo {
			// The difference of two int64 always fits in an uint64.
			interval = uint64(hi) - uint64(lo) - 1
		}
	}

	step := a.boundary
	if interval < step {
		step = interval
	}

	add, ok := a.strategy[depth]
	if !ok {
		add = a.rng.IntN(2) == 0
		a.strategy[depth] = add
	}

	path := prefix(lower, depth, math.MinInt64)
	v := a.rng.Uint64N(step) + 1
	if add {
		path[depth-1] = int64(uint64(path[depth-1]) + v)
	} else {
		path[depth-1] = int64(uint64(digit(upper, depth-1, math.MaxInt64)) - v)
	}

	if ComparePaths(lower, path) >= 0 || ComparePaths(path, upper) >= 0 {
		return Identifier{}, fmt.Errorf("%w: generated %v outside of (%v, %v)", ErrInvalidAllocation, path, lower, upper)
	}

	a.clock++
	return Identifier{Path: path, Origin: a.origin, Clock: a.clock}, nil
}

// digit returns path[i], or fill when the path is shorter.
func digit(path []int64, i int, fill int64) int64 {
	if i < len(path) {
		return path[i]
	}
	return fill
}

// prefix returns the first depth digits of path, right-padded with fill.
func prefix(path []int64, depth int, fill int64) []int64 {
	p := make([]int64, depth)
	for i := range p {
		p[i] = digit(path, i, fill)
	}
	return p
}
