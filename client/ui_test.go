package main

import (
	"strings"
	"testing"

	"github.com/burntcarrot/lseqpad/commons"
	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestLogin(t *testing.T) {
	en, conn := newTestEngine("a")
	m := newModel(en, nil, "")

	if !strings.Contains(m.View(), "Enter username") {
		t.Errorf("expected the login prompt, got %q", m.View())
	}

	// Enter without a name keeps the prompt.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.loggedIn {
		t.Fatalf("logged in without a username")
	}

	m.login.SetValue("alice")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.loggedIn {
		t.Fatalf("expected to be logged in")
	}
	if len(conn.msgs) != 1 || conn.msgs[0].Type != commons.JoinMessage || conn.msgs[0].Username != "alice" {
		t.Errorf("expected a join message, got %+v", conn.msgs)
	}
}

func TestKeys(t *testing.T) {
	en, _ := newTestEngine("a")
	m := newModel(en, nil, "alice")

	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("helo")},
		{Type: tea.KeyLeft},
		{Type: tea.KeyRunes, Runes: []rune("l")},
		{Type: tea.KeyEnd},
		{Type: tea.KeyEnter},
		{Type: tea.KeyTab},
		{Type: tea.KeySpace},
		{Type: tea.KeyBackspace},
		{Type: tea.KeyUp},
		{Type: tea.KeyHome},
		{Type: tea.KeyDelete},
	}

	for _, k := range keys {
		m, _ = update(t, m, k)
	}

	if got, want := en.doc.Content(), "ello\n    "; got != want {
		t.Errorf("got != want; got = %q, expected = %q\n", got, want)
	}
	if got, want := string(en.editor.Text), en.doc.Content(); got != want {
		t.Errorf("editor out of sync; got = %q, expected = %q\n", got, want)
	}
}

func TestRemoteMessages(t *testing.T) {
	en, _ := newTestEngine("a")
	msgs := make(chan commons.Message, 1)
	m := newModel(en, msgs, "alice")

	m, cmd := update(t, m, remoteMsg(commons.Message{Type: commons.SiteIDMessage, Text: "site-1"}))
	if got, want := en.doc.Origin(), "site-1"; got != want {
		t.Errorf("got != want; got = %v, expected = %v\n", got, want)
	}

	// The returned command waits for the next message.
	msgs <- commons.Message{Type: commons.JoinMessage, Username: "bob"}
	if got, ok := cmd().(remoteMsg); !ok || got.Username != "bob" {
		t.Errorf("unexpected message: %#v", got)
	}

	close(msgs)
	if _, ok := waitForMsg(msgs)().(connClosedMsg); !ok {
		t.Errorf("expected connClosedMsg once the channel is closed")
	}

	m, cmd = update(t, m, connClosedMsg{})
	if !m.quitting || cmd == nil {
		t.Errorf("expected to quit when the connection is closed")
	}
}

func TestQuit(t *testing.T) {
	en, _ := newTestEngine("a")
	m := newModel(en, nil, "")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quitting || cmd == nil {
		t.Errorf("expected to quit")
	}
	if got, want := m.View(), "\n  See you later!\n\n"; got != want {
		t.Errorf("got != want; got = %q, expected = %q\n", got, want)
	}
}
