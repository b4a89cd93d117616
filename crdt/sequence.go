package crdt

import (
	"iter"

	"github.com/google/btree"
)

// sequenceDegree is the branching factor of the B-tree backing a Sequence.
const sequenceDegree = 32

// Sequence is the ordered store of the atoms of a document.
// Iterating it yields atoms in identifier order, which is the reading order of the document.
type Sequence struct {
	atoms *btree.BTreeG[Atom]
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{
		atoms: btree.NewG(sequenceDegree, func(a, b Atom) bool {
			return Compare(a.ID, b.ID) < 0
		}),
	}
}

// Insert adds atom at its ordered position.
// It reports false, leaving the sequence untouched, if an atom with the same identifier is already stored.
func (s *Sequence) Insert(atom Atom) bool {
	if s.atoms.Has(atom) {
		return false
	}
	s.atoms.ReplaceOrInsert(atom)
	return true
}

// Remove deletes the atom identified by id. Removing an absent identifier is a no-op.
func (s *Sequence) Remove(id Identifier) bool {
	_, ok := s.atoms.Delete(Atom{ID: id})
	return ok
}

// Has reports whether an atom identified by id is stored.
func (s *Sequence) Has(id Identifier) bool {
	return s.atoms.Has(Atom{ID: id})
}

// Len returns the number of stored atoms.
func (s *Sequence) Len() int {
	return s.atoms.Len()
}

// All iterates over the stored atoms in order.
func (s *Sequence) All() iter.Seq[Atom] {
	return func(yield func(Atom) bool) {
		s.atoms.Ascend(func(atom Atom) bool {
			return yield(atom)
		})
	}
}

// Reconstruct iterates over the values of the document in reading order.
// The returned sequence can be ranged over any number of times.
func (s *Sequence) Reconstruct() iter.Seq[string] {
	return func(yield func(string) bool) {
		for atom := range s.All() {
			if !yield(atom.Value) {
				return
			}
		}
	}
}

// Atoms returns the stored atoms in order.
func (s *Sequence) Atoms() []Atom {
	atoms := make([]Atom, 0, s.Len())
	for atom := range s.All() {
		atoms = append(atoms, atom)
	}
	return atoms
}
