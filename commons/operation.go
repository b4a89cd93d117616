package commons

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/lseqpad/crdt"
)

// Operation represents a CRDT operation.
// Operations are addressed by identifier, never by position, so they can be applied in any order.
type Operation struct {
	// Type represents the operation type, for example, insert, delete.
	Type string `json:"operation"`

	// Value represents the content of the operation. Mostly a character. Empty for deletions.
	Value string `json:"value,omitempty"`

	// Path and Origin (and Clock) identify the atom the operation applies to.
	Path   []int64 `json:"path"`
	Origin string  `json:"origin"`
	Clock  uint64  `json:"clock,omitempty"`

	// DocumentID is the document the operation belongs to.
	DocumentID string `json:"document_id"`
}

const (
	OperationInsert = "insert"
	OperationDelete = "delete"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrEmptyPath        = errors.New("operation without path")
)

// InsertOp returns the operation broadcasting a local insertion.
func InsertOp(documentID string, atom crdt.Atom) Operation {
	return Operation{
		Type:       OperationInsert,
		Value:      atom.Value,
		Path:       atom.ID.Path,
		Origin:     atom.ID.Origin,
		Clock:      atom.ID.Clock,
		DocumentID: documentID,
	}
}

// DeleteOp returns the operation broadcasting a local deletion.
func DeleteOp(documentID string, id crdt.Identifier) Operation {
	return Operation{
		Type:       OperationDelete,
		Path:       id.Path,
		Origin:     id.Origin,
		Clock:      id.Clock,
		DocumentID: documentID,
	}
}

// Identifier returns the identifier the operation applies to.
func (op Operation) Identifier() crdt.Identifier {
	return crdt.Identifier{Path: op.Path, Origin: op.Origin, Clock: op.Clock}
}

// Atom returns the atom carried by an insert operation.
func (op Operation) Atom() crdt.Atom {
	return crdt.Atom{ID: op.Identifier(), Value: op.Value}
}

// Validate checks that the operation can be applied.
func (op Operation) Validate() error {
	switch op.Type {
	case OperationInsert, OperationDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Type)
	}

	if len(op.Path) == 0 {
		return ErrEmptyPath
	}

	return nil
}

// Apply applies a remote operation to doc.
func (op Operation) Apply(doc *crdt.Document) error {
	if err := op.Validate(); err != nil {
		return err
	}

	if op.Type == OperationInsert {
		return doc.RemoteInsert(op.Atom())
	}

	doc.RemoteDelete(op.Identifier())
	return nil
}
