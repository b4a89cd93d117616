package commons

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/burntcarrot/lseqpad/crdt"
	"github.com/google/go-cmp/cmp"
)

func TestOperationWireFormat(t *testing.T) {
	op := Operation{Type: OperationInsert, Value: "a", Path: []int64{3, 7}, Origin: "site", Clock: 2, DocumentID: "doc"}

	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}

	got := make(map[string]any)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("error: %v\n", err)
	}

	want := map[string]any{
		"operation":   "insert",
		"value":       "a",
		"path":        []any{3.0, 7.0},
		"origin":      "site",
		"clock":       2.0,
		"document_id": "doc",
	}

	if !cmp.Equal(got, want) {
		t.Errorf("got != want; diff = %v\n", cmp.Diff(got, want))
	}
}

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		description string
		op          Operation
		want        error
	}{
		{description: "insert", op: Operation{Type: OperationInsert, Value: "a", Path: []int64{1}}, want: nil},
		{description: "delete", op: Operation{Type: OperationDelete, Path: []int64{1}}, want: nil},
		{description: "unknown type", op: Operation{Type: "move", Path: []int64{1}}, want: ErrUnknownOperation},
		{description: "missing path", op: Operation{Type: OperationDelete}, want: ErrEmptyPath},
	}

	for _, tc := range tests {
		if err := tc.op.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("(%s) got err = %v, expected = %v\n", tc.description, err, tc.want)
		}
	}
}

// TestOperationApply sends the edits of one replica to another through JSON messages.
func TestOperationApply(t *testing.T) {
	local := crdt.New("local", crdt.Config{Seed: 1})
	remote := crdt.New("remote", crdt.Config{Seed: 2})

	var wire [][]byte
	send := func(op Operation) {
		data, err := json.Marshal(Message{Type: OperationMessage, Operation: op})
		if err != nil {
			t.Fatalf("error: %v\n", err)
		}
		wire = append(wire, data)
	}

	for i, r := range "Hello" {
		atom, err := local.LocalInsert(i, string(r))
		if err != nil {
			t.Fatalf("error: %v\n", err)
		}
		send(InsertOp("doc", atom))
	}

	id, _ := local.LocalDelete(2)
	send(DeleteOp("doc", id))

	for _, data := range wire {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("error: %v\n", err)
		}
		if err := msg.Operation.Apply(remote); err != nil {
			t.Fatalf("error: %v\n", err)
		}
	}

	if got, want := remote.Content(), "Helo"; got != want {
		t.Errorf("got != want; got = %v, expected = %v\n", got, want)
	}

	if got := (Operation{Type: "noop", Path: []int64{1}}).Apply(remote); !errors.Is(got, ErrUnknownOperation) {
		t.Errorf("got err = %v, expected = %v\n", got, ErrUnknownOperation)
	}
}

func TestOperationIdentifier(t *testing.T) {
	id := crdt.Identifier{Path: []int64{1, 2}, Origin: "site", Clock: 4}
	op := DeleteOp("doc", id)

	if !op.Identifier().Equal(id) {
		t.Errorf("got != want; got = %v, expected = %v\n", op.Identifier(), id)
	}

	if op.Value != "" || op.DocumentID != "doc" {
		t.Errorf("unexpected delete operation %+v", op)
	}
}
