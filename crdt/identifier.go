package crdt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identifier is the position key of an atom in the document.
// Identifiers are totally ordered by Compare, independently of the order in which they were created.
type Identifier struct {
	// Path is the ordered sequence of digits allocated by the LSEQ allocator.
	Path []int64 `json:"path"`

	// Origin is the replica (session) that allocated the identifier.
	Origin string `json:"origin"`

	// Clock is the value of the origin's local clock at allocation time.
	Clock uint64 `json:"clock"`
}

const (
	startOrigin = "sentinel-start"
	endOrigin   = "sentinel-end"
)

var (
	// Start is placed before every other identifier.
	Start = Identifier{Path: []int64{math.MinInt64}, Origin: startOrigin}

	// End is placed after every other identifier.
	End = Identifier{Path: []int64{math.MaxInt64}, Origin: endOrigin}
)

// ComparePaths compares two paths element-wise.
// When one path is a prefix of the other, the shorter path is less:
// a missing digit sorts before any present digit, math.MinInt64 included.
func ComparePaths(a, b []int64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Compare returns -1, 0 or 1 depending on whether a sorts before, equal to or after b.
func Compare(a, b Identifier) int {
	if c := ComparePaths(a.Path, b.Path); c != 0 {
		return c
	}

	if c := strings.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}

	switch {
	case a.Clock < b.Clock:
		return -1
	case a.Clock > b.Clock:
		return 1
	}
	return 0
}

// Less reports whether id sorts before other.
func (id Identifier) Less(other Identifier) bool {
	return Compare(id, other) < 0
}

// Equal reports whether id and other denote the same position.
func (id Identifier) Equal(other Identifier) bool {
	return Compare(id, other) == 0
}

// IsSentinel reports whether id is Start or End.
func (id Identifier) IsSentinel() bool {
	return id.Equal(Start) || id.Equal(End)
}

// Bounded reports whether the path of id lies strictly between the sentinel paths.
// Allocated identifiers always do; anything else would sort outside the document.
func (id Identifier) Bounded() bool {
	return ComparePaths(Start.Path, id.Path) < 0 && ComparePaths(id.Path, End.Path) < 0
}

func (id Identifier) String() string {
	digits := make([]string, len(id.Path))
	for i, d := range id.Path {
		switch d {
		case math.MinInt64:
			digits[i] = "-inf"
		case math.MaxInt64:
			digits[i] = "+inf"
		default:
			digits[i] = strconv.FormatInt(d, 10)
		}
	}
	return fmt.Sprintf("%s@%s:%d", strings.Join(digits, "."), id.Origin, id.Clock)
}

// Atom is a unit of replicated content paired with its identifier.
type Atom struct {
	ID    Identifier `json:"id"`
	Value string     `json:"value"`
}

// copyPath returns a copy of path that does not share its backing array.
func copyPath(path []int64) []int64 {
	p := make([]int64, len(path))
	copy(p, path)
	return p
}
