package crdt

import (
	"fmt"
	"slices"
	"strings"
)

// Tree is the index of a document: it maps positions to identifiers and back.
//
// Leaves hold sorted runs of identifiers, internal nodes cache the number of
// identifiers below them. The tree always contains the Start and End sentinels,
// so position 0 is Start and position Len()-1 is End.
type Tree struct {
	root     node
	capacity int
}

// node is either a *leaf or an *internal.
type node interface {
	size() int
}

type leaf struct {
	ids []Identifier
}

type internal struct {
	left, right node
	length      int
}

func (l *leaf) size() int     { return len(l.ids) }
func (n *internal) size() int { return n.length }

// NewTree returns a tree holding only the sentinels.
// Leaves are split once they hold more than capacity identifiers.
func NewTree(capacity int) *Tree {
	if capacity < 2 {
		capacity = DefaultLeafCapacity
	}
	return &Tree{
		root:     &leaf{ids: []Identifier{Start, End}},
		capacity: capacity,
	}
}

// invalidNode reports a node that is neither a leaf nor an internal node.
func invalidNode(n node) {
	panic(fmt.Errorf("%w: unexpected node %T", ErrStructuralInvariant, n))
}

// Len returns the number of identifiers in the tree, sentinels included.
func (t *Tree) Len() int {
	return t.root.size()
}

// search returns the leaf holding position and the offset of position inside it.
// position == Len() resolves to the end of the last leaf.
func (t *Tree) search(position int) (*leaf, int, bool) {
	if position < 0 || position > t.Len() {
		return nil, 0, false
	}

	n := t.root
	for {
		switch v := n.(type) {
		case *leaf:
			return v, position, true
		case *internal:
			if position < v.left.size() {
				n = v.left
			} else {
				position -= v.left.size()
				n = v.right
			}
		default:
			invalidNode(n)
		}
	}
}

// At returns the identifier at position.
func (t *Tree) At(position int) (Identifier, bool) {
	l, offset, ok := t.search(position)
	if !ok || offset >= len(l.ids) {
		return Identifier{}, false
	}
	return l.ids[offset], true
}

// InsertNeighbors returns the identifiers surrounding the gap in front of position,
// i.e. the bounds an identifier inserted at position must be allocated between.
// A nil bound means there is no identifier on that side.
func (t *Tree) InsertNeighbors(position int) (prev, next *Identifier, ok bool) {
	l, offset, ok := t.search(position)
	if !ok {
		return nil, nil, false
	}

	// Empty tree.
	if t.Len() == 0 {
		return nil, nil, true
	}

	switch {
	case offset == 0:
		// The previous identifier is the last one of the previous leaf.
		if position > 0 {
			if p, ok := t.At(position - 1); ok {
				prev = &p
			}
		}
		if len(l.ids) > 0 {
			next = &l.ids[0]
		}
	case offset == len(l.ids):
		prev = &l.ids[len(l.ids)-1]
		// The next identifier is the first one of the next leaf.
		if n, ok := t.At(position); ok {
			next = &n
		}
	default:
		prev = &l.ids[offset-1]
		next = &l.ids[offset]
	}

	return clone(prev), clone(next), true
}

// Position returns the position of id, found by the same comparisons Insert routes with.
func (t *Tree) Position(id Identifier) (int, bool) {
	n := t.root
	base := 0
	for {
		switch v := n.(type) {
		case *leaf:
			i, found := slices.BinarySearchFunc(v.ids, id, Compare)
			if !found {
				return 0, false
			}
			return base + i, true
		case *internal:
			if last, ok := lastID(v.left); ok && Compare(id, last) <= 0 {
				n = v.left
			} else {
				base += v.left.size()
				n = v.right
			}
		default:
			invalidNode(n)
		}
	}
}

// DeleteNeighbor returns the identifier occupying position.
func (t *Tree) DeleteNeighbor(position int) (*Identifier, bool) {
	id, ok := t.At(position)
	if !ok {
		return nil, false
	}
	return &id, true
}

// clone detaches id from the leaf it points into.
func clone(id *Identifier) *Identifier {
	if id == nil {
		return nil
	}
	c := *id
	c.Path = copyPath(id.Path)
	return &c
}

// Insert adds id at its ordered position. Inserting an identifier twice is a no-op.
// The leaf is chosen by comparing id with the greatest identifier of each left subtree,
// so the result only depends on the identifiers already present, never on positions.
func (t *Tree) Insert(id Identifier) {
	t.root = t.insert(t.root, id)
}

func (t *Tree) insert(n node, id Identifier) node {
	switch v := n.(type) {
	case *leaf:
		i, found := slices.BinarySearchFunc(v.ids, id, Compare)
		if found {
			return v
		}
		v.ids = slices.Insert(v.ids, i, id)
		if len(v.ids) <= t.capacity {
			return v
		}
		left, right := v.split()
		return &internal{left: left, right: right, length: left.size() + right.size()}
	case *internal:
		// An id equal to the last one on the left goes left, where the leaf sees the duplicate.
		// An empty left subtree sends everything right, where the order is settled.
		if last, ok := lastID(v.left); ok && Compare(id, last) <= 0 {
			v.left = t.insert(v.left, id)
		} else {
			v.right = t.insert(v.right, id)
		}
		v.length = v.left.size() + v.right.size()
		return v
	default:
		invalidNode(n)
		return nil
	}
}

// split divides l into two leaves; the left one gets the smaller half.
func (l *leaf) split() (*leaf, *leaf) {
	mid := len(l.ids) / 2
	left := &leaf{ids: slices.Clone(l.ids[:mid])}
	right := &leaf{ids: slices.Clone(l.ids[mid:])}
	return left, right
}

// lastID returns the greatest identifier below n.
func lastID(n node) (Identifier, bool) {
	switch v := n.(type) {
	case *leaf:
		if len(v.ids) == 0 {
			return Identifier{}, false
		}
		return v.ids[len(v.ids)-1], true
	case *internal:
		if id, ok := lastID(v.right); ok {
			return id, true
		}
		return lastID(v.left)
	default:
		invalidNode(n)
		return Identifier{}, false
	}
}

// Delete removes id from the tree. Deleting an absent identifier is a no-op.
// Leaves left empty are kept in place.
func (t *Tree) Delete(id Identifier) bool {
	return remove(t.root, id)
}

// remove deletes id below n and refreshes the cached lengths on the way back up.
func remove(n node, id Identifier) bool {
	switch v := n.(type) {
	case *leaf:
		i, found := slices.BinarySearchFunc(v.ids, id, Compare)
		if !found {
			return false
		}
		v.ids = slices.Delete(v.ids, i, i+1)
		return true
	case *internal:
		removed := remove(v.left, id) || remove(v.right, id)
		if removed {
			v.length = v.left.size() + v.right.size()
		}
		return removed
	default:
		invalidNode(n)
		return false
	}
}

// IDs returns the identifiers of the tree in order, sentinels included.
func (t *Tree) IDs() []Identifier {
	ids := make([]Identifier, 0, t.Len())
	walk(t.root, func(l *leaf) {
		ids = append(ids, l.ids...)
	})
	return ids
}

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int {
	count := 0
	walk(t.root, func(*leaf) { count++ })
	return count
}

// Depth returns the number of nodes on the longest root to leaf path.
func (t *Tree) Depth() int {
	return depth(t.root)
}

func depth(n node) int {
	switch v := n.(type) {
	case *leaf:
		return 1
	case *internal:
		return 1 + max(depth(v.left), depth(v.right))
	default:
		invalidNode(n)
		return 0
	}
}

// walk visits the leaves below n from left to right.
func walk(n node, visit func(*leaf)) {
	switch v := n.(type) {
	case *leaf:
		visit(v)
	case *internal:
		walk(v.left, visit)
		walk(v.right, visit)
	default:
		invalidNode(n)
	}
}

// String renders the tree structure, one node per line.
func (t *Tree) String() string {
	var b strings.Builder
	dump(&b, t.root, 0)
	return b.String()
}

func dump(b *strings.Builder, n node, level int) {
	indent := strings.Repeat("  ", level)
	switch v := n.(type) {
	case *leaf:
		ids := make([]string, len(v.ids))
		for i, id := range v.ids {
			ids[i] = id.String()
		}
		fmt.Fprintf(b, "%sleaf(%d): %s\n", indent, len(v.ids), strings.Join(ids, ", "))
	case *internal:
		fmt.Fprintf(b, "%sinternal(%d)\n", indent, v.length)
		dump(b, v.left, level+1)
		dump(b, v.right, level+1)
	default:
		invalidNode(n)
	}
}
