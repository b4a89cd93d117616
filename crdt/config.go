package crdt

// Config holds the tunables of a document replica.
type Config struct {
	// Boundary caps the width of a single allocation step.
	// Small values keep paths short near the edit point, large values reduce the
	// chance that concurrent replicas pick the same digit.
	Boundary uint64

	// LeafCapacity is the number of identifiers a leaf of the index tree holds before it is split.
	LeafCapacity int

	// MaxDepth bounds the path length the allocator is allowed to produce.
	MaxDepth int

	// Seed seeds the allocator's random source. Zero picks a random seed.
	Seed uint64
}

const (
	DefaultBoundary     = 1000
	DefaultLeafCapacity = 256
	DefaultMaxDepth     = 64
)

// DefaultConfig returns the configuration used when no tuning is required.
func DefaultConfig() Config {
	return Config{
		Boundary:     DefaultBoundary,
		LeafCapacity: DefaultLeafCapacity,
		MaxDepth:     DefaultMaxDepth,
	}
}

// withDefaults fills the zero fields of c.
func (c Config) withDefaults() Config {
	if c.Boundary == 0 {
		c.Boundary = DefaultBoundary
	}
	if c.LeafCapacity < 2 {
		c.LeafCapacity = DefaultLeafCapacity
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	return c
}
