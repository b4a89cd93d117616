package main

import (
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/burntcarrot/lseqpad/commons"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) *httptest.Server {
	t.Helper()

	h := newHub()
	go h.handleMsg()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, document string) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?doc=" + document
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("error: %v\n", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) commons.Message {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg commons.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("error: %v\n", err)
	}
	return msg
}

// expectSilence checks that nothing arrives on conn for a short while.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))

	var msg commons.Message
	err := conn.ReadJSON(&msg)
	if err == nil {
		t.Fatalf("unexpected message %+v", msg)
	}
	if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
		t.Fatalf("expected a timeout, got %v", err)
	}
}

func TestHubRouting(t *testing.T) {
	srv := startHub(t)

	alice := dial(t, srv, "notes")
	aliceSite := read(t, alice)
	if aliceSite.Type != commons.SiteIDMessage || aliceSite.Text != aliceSite.ID.String() {
		t.Fatalf("unexpected site message %+v", aliceSite)
	}

	other := dial(t, srv, "other")
	_ = read(t, other)

	bob := dial(t, srv, "notes")
	bobSite := read(t, bob)

	// Alice is asked to share her document with bob.
	req := read(t, alice)
	if req.Type != commons.DocReqMessage || req.ID != bobSite.ID {
		t.Fatalf("unexpected request %+v", req)
	}

	sync := commons.Message{Type: commons.DocSyncMessage, ID: req.ID}
	if err := alice.WriteJSON(sync); err != nil {
		t.Fatalf("error: %v\n", err)
	}
	if got := read(t, bob); got.Type != commons.DocSyncMessage {
		t.Fatalf("unexpected message %+v", got)
	}

	// Operations reach the other replicas of the same document only.
	op := commons.Operation{Type: commons.OperationInsert, Value: "a", Path: []int64{5}, Origin: aliceSite.Text, DocumentID: "notes"}
	if err := alice.WriteJSON(commons.Message{Type: commons.OperationMessage, Operation: op}); err != nil {
		t.Fatalf("error: %v\n", err)
	}

	got := read(t, bob)
	if got.Type != commons.OperationMessage || got.ID != aliceSite.ID {
		t.Fatalf("unexpected message %+v", got)
	}
	if !cmp.Equal(got.Operation, op) {
		t.Errorf("got != want; diff = %v\n", cmp.Diff(got.Operation, op))
	}

	expectSilence(t, alice)
	expectSilence(t, other)
}

func TestHubJoin(t *testing.T) {
	srv := startHub(t)

	alice := dial(t, srv, "notes")
	_ = read(t, alice)

	bob := dial(t, srv, "notes")
	_ = read(t, bob)
	_ = read(t, alice) // docReq

	if err := alice.WriteJSON(commons.Message{Type: commons.JoinMessage, Username: "alice"}); err != nil {
		t.Fatalf("error: %v\n", err)
	}
	if got := read(t, bob); got.Type != commons.JoinMessage || got.Username != "alice" {
		t.Fatalf("unexpected message %+v", got)
	}
	if got := read(t, bob); got.Type != commons.UsersMessage || got.Text != "alice" {
		t.Fatalf("unexpected message %+v", got)
	}
	if got := read(t, alice); got.Type != commons.UsersMessage || got.Text != "alice" {
		t.Fatalf("unexpected message %+v", got)
	}

	if err := bob.WriteJSON(commons.Message{Type: commons.JoinMessage, Username: "bob"}); err != nil {
		t.Fatalf("error: %v\n", err)
	}
	_ = read(t, alice) // join
	if got := read(t, alice); got.Type != commons.UsersMessage || got.Text != "alice,bob" {
		t.Fatalf("unexpected message %+v", got)
	}
}
