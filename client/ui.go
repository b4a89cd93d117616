package main

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/lseqpad/commons"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var errConnClosed = errors.New("connection closed")

type (
	// remoteMsg carries a message read from the server into the update loop.
	remoteMsg commons.Message

	connClosedMsg struct{}
)

type model struct {
	login  textinput.Model
	engine *engine
	msgs   <-chan commons.Message

	loggedIn bool
	quitting bool
	err      error
}

// newModel returns the UI model. If name is set, the login prompt is skipped.
func newModel(en *engine, msgs <-chan commons.Message, name string) model {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 20

	return model{
		login:    ti,
		engine:   en,
		msgs:     msgs,
		loggedIn: name != "",
	}
}

// waitForMsg waits for the next message from the server.
func waitForMsg(msgs <-chan commons.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return connClosedMsg{}
		}
		return remoteMsg(msg)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMsg(m.msgs))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.engine.editor.SetSize(msg.Width, msg.Height)
		return m, nil

	case remoteMsg:
		m.engine.handleMsg(commons.Message(msg))
		return m, waitForMsg(m.msgs)

	case connClosedMsg:
		m.err = errConnClosed
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		// The default keys for exiting a session are Esc and Ctrl+C.
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.quitting = true
			return m, tea.Quit
		}

		if m.loggedIn {
			m.handleKey(msg)
			return m, nil
		}

		if msg.Type == tea.KeyEnter && m.login.Value() != "" {
			m.loggedIn = true
			_ = m.engine.join(m.login.Value())
			return m, nil
		}
	}

	if !m.loggedIn {
		m.login, cmd = m.login.Update(msg)
	}

	return m, cmd
}

// handleKey applies a key press to the editor and the document.
// Failed edits are logged and shown on the status bar by the engine.
func (m model) handleKey(msg tea.KeyMsg) {
	e := m.engine.editor

	switch msg.Type {
	// The default keys for moving left inside the text area are the left arrow key, and Ctrl+B (move backward).
	case tea.KeyLeft, tea.KeyCtrlB:
		e.MoveCursor(-1, 0)

	// The default keys for moving right inside the text area are the right arrow key, and Ctrl+F (move forward).
	case tea.KeyRight, tea.KeyCtrlF:
		e.MoveCursor(1, 0)

	// The default keys for moving up inside the text area are the up arrow key, and Ctrl+P (move to previous line).
	case tea.KeyUp, tea.KeyCtrlP:
		e.MoveCursor(0, -1)

	// The default keys for moving down inside the text area are the down arrow key, and Ctrl+N (move to next line).
	case tea.KeyDown, tea.KeyCtrlN:
		e.MoveCursor(0, 1)

	case tea.KeyHome:
		e.SetX(0)

	case tea.KeyEnd:
		e.SetX(len(e.Text))

	case tea.KeyBackspace:
		_ = m.engine.deleteBackward()

	case tea.KeyDelete:
		_ = m.engine.deleteForward()

	// The Tab key inserts 4 spaces to simulate a "tab".
	case tea.KeyTab:
		for i := 0; i < 4; i++ {
			_ = m.engine.insert(' ')
		}

	case tea.KeyEnter:
		_ = m.engine.insert('\n')

	case tea.KeySpace:
		_ = m.engine.insert(' ')

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if err := m.engine.insert(r); err != nil {
				return
			}
		}
	}
}

func loginView(m model) string {
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s",
		m.login.View(),
		"(esc to quit)",
	) + "\n"
}

func (m model) View() string {
	if m.quitting {
		if m.err != nil {
			return fmt.Sprintf("\n  %v, see you later!\n\n", m.err)
		}
		return "\n  See you later!\n\n"
	}
	if !m.loggedIn {
		return loginView(m)
	}
	return m.engine.editor.View()
}
