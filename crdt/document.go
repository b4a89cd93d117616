package crdt

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Document is a replica of a plain-text document.
//
// It ties the allocator, the sequence store and the index tree together:
// local edits are addressed by caret offset, remote edits by identifier only.
// A Document is not safe for concurrent use; callers serialize every call.
type Document struct {
	alloc *Allocator
	seq   *Sequence
	tree  *Tree

	logger logrus.FieldLogger
}

// New returns an empty document replica for origin.
func New(origin string, cfg Config) *Document {
	cfg = cfg.withDefaults()

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Document{
		alloc:  NewAllocator(origin, cfg),
		seq:    NewSequence(),
		tree:   NewTree(cfg.LeafCapacity),
		logger: discard,
	}
}

// SetLogger sets the logger used for diagnostics.
func (doc *Document) SetLogger(logger logrus.FieldLogger) {
	doc.logger = logger
}

// Origin returns the replica identifier the document allocates for.
func (doc *Document) Origin() string {
	return doc.alloc.Origin()
}

// SetOrigin changes the replica identifier used for future allocations.
// The local clock keeps counting, so identifiers stay unique per origin.
func (doc *Document) SetOrigin(origin string) {
	doc.alloc.origin = origin
}

// Length returns the number of characters in the document.
func (doc *Document) Length() int {
	return doc.seq.Len()
}

// Content returns the text of the document.
func (doc *Document) Content() string {
	var b strings.Builder
	for value := range doc.seq.Reconstruct() {
		b.WriteString(value)
	}
	return b.String()
}

// Atoms returns the atoms of the document in reading order.
func (doc *Document) Atoms() []Atom {
	return doc.seq.Atoms()
}

// Offset returns the caret offset of the character identified by id.
func (doc *Document) Offset(id Identifier) (int, bool) {
	if id.IsSentinel() {
		return 0, false
	}
	position, ok := doc.tree.Position(id)
	if !ok {
		return 0, false
	}
	return position - 1, true
}

// Clock returns the number of identifiers allocated by this replica.
func (doc *Document) Clock() uint64 {
	return doc.alloc.Clock()
}

// Tree returns the index tree of the document.
func (doc *Document) Tree() *Tree {
	return doc.tree
}

///////////////
// Operations
///////////////

// LocalInsert inserts value in front of the character at offset and returns the new atom,
// which is what has to be sent to the other replicas.
func (doc *Document) LocalInsert(offset int, value string) (Atom, error) {
	if offset < 0 || offset > doc.Length() {
		return Atom{}, ErrPositionOutOfBounds
	}

	if value == "" {
		return Atom{}, ErrEmptyValue
	}

	// The tree counts the start sentinel, caret offsets do not.
	prev, next, ok := doc.tree.InsertNeighbors(offset + 1)
	if !ok {
		return Atom{}, ErrPositionOutOfBounds
	}

	var lower, upper []int64
	if prev != nil {
		lower = prev.Path
	}
	if next != nil {
		upper = next.Path
	}

	id, err := doc.alloc.Alloc(lower, upper)
	if err != nil {
		// Concurrent replicas may have picked the same path; nothing fits between their atoms.
		doc.logger.WithFields(logrus.Fields{
			"offset": offset,
			"prev":   describe(prev),
			"next":   describe(next),
		}).WithError(err).Warn("no identifier fits between the neighbors")
		return Atom{}, fmt.Errorf("insert at %d: %w", offset, err)
	}

	atom := Atom{ID: id, Value: value}
	doc.seq.Insert(atom)
	doc.tree.Insert(id)

	return atom, nil
}

// describe renders an optional neighbor for diagnostics.
func describe(id *Identifier) string {
	if id == nil {
		return "none"
	}
	return id.String()
}

// LocalDelete removes the character at offset and returns its identifier.
// It reports false if offset does not address a character.
func (doc *Document) LocalDelete(offset int) (Identifier, bool) {
	if offset < 0 || offset >= doc.Length() {
		return Identifier{}, false
	}

	id, ok := doc.tree.DeleteNeighbor(offset + 1)
	if !ok || id.IsSentinel() {
		return Identifier{}, false
	}

	doc.seq.Remove(*id)
	doc.tree.Delete(*id)

	return *id, true
}

// RemoteInsert integrates an atom created by another replica.
// Atoms that are already present are ignored.
func (doc *Document) RemoteInsert(atom Atom) error {
	if err := validate(atom); err != nil {
		return err
	}

	doc.integrate(atom)
	return nil
}

// validate rejects atoms that cannot be integrated without breaking the order of the document.
func validate(atom Atom) error {
	if !atom.ID.Bounded() {
		return fmt.Errorf("%w: %v", ErrInvalidIdentifier, atom.ID)
	}

	if atom.Value == "" {
		return ErrEmptyValue
	}

	return nil
}

// integrate adds a validated atom to the sequence and the tree, unless it is already present.
func (doc *Document) integrate(atom Atom) {
	atom.ID.Path = copyPath(atom.ID.Path)
	if !doc.seq.Insert(atom) {
		doc.logger.WithField("id", atom.ID.String()).Debug("remote insert already applied")
		return
	}
	doc.tree.Insert(atom.ID)
}

// RemoteDelete removes the atom identified by id.
// Deleting an unknown identifier is not an error: the delete may be a replay.
func (doc *Document) RemoteDelete(id Identifier) {
	if id.IsSentinel() {
		doc.logger.WithField("id", id.String()).Warn("refusing to delete sentinel")
		return
	}

	if !doc.seq.Remove(id) {
		doc.logger.WithField("id", id.String()).Debug("remote delete of unknown atom")
		return
	}
	doc.tree.Delete(id)
}

// Load merges atoms, typically a snapshot sent by a peer, into the document.
// Atoms already present are skipped, and local atoms missing from the snapshot are kept:
// they may have been broadcast after the peer took it.
// Nothing is merged if any atom is invalid.
func (doc *Document) Load(atoms []Atom) error {
	for _, atom := range atoms {
		if err := validate(atom); err != nil {
			return err
		}
	}

	for _, atom := range atoms {
		doc.integrate(atom)
	}

	return nil
}

////////////////////////////////
// Implement the CRDT interface
////////////////////////////////

// Insert inserts value at position and returns the resulting content.
func (doc *Document) Insert(position int, value string) (string, error) {
	if _, err := doc.LocalInsert(position, value); err != nil {
		return doc.Content(), err
	}
	return doc.Content(), nil
}

// Delete removes the character at position and returns the resulting content.
func (doc *Document) Delete(position int) string {
	doc.LocalDelete(position)
	return doc.Content()
}
