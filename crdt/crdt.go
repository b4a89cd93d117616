package crdt

import "errors"

// CRDT is implemented by replicated documents that can be edited by caret position.
type CRDT interface {
	Insert(position int, value string) (string, error)
	Delete(position int) string
}

var (
	ErrPositionOutOfBounds = errors.New("position out of bounds")
	ErrEmptyValue          = errors.New("empty value provided")
	ErrInvalidAllocation   = errors.New("invalid allocation")
	ErrInvalidIdentifier   = errors.New("invalid identifier")

	// ErrStructuralInvariant is raised (as a panic) when the index tree is malformed.
	// It never occurs for trees built through this package.
	ErrStructuralInvariant = errors.New("index tree structural invariant violated")
)
