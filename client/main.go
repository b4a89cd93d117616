package main

import (
	"os"

	"github.com/burntcarrot/lseqpad/client/editor"
	"github.com/burntcarrot/lseqpad/crdt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	flags := parseFlags()

	logger := logrus.New()
	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		color.Red("Logger error, exiting: %s", err)
		os.Exit(1)
	}
	defer closeLogFiles(logFile, debugLogFile)

	if flags.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	conn, _, err := createConn(flags)
	if err != nil {
		color.Red("Connection error, exiting: %s", err)
		logger.Errorf("connection error: %v", err)
		return
	}
	defer conn.Close()

	color.Green("Connected to server @ %s, editing %q", flags.Server, flags.Document)

	// The server sends the site ID right after connecting; until then the replica uses a random one.
	doc := crdt.New(uuid.NewString(), crdt.DefaultConfig())
	doc.SetLogger(logger)

	e := editor.NewEditor(editor.EditorConfig{ScrollEnabled: true})
	en := newEngine(doc, e, conn, flags.Document, logger, flags.Debug)

	if flags.Name != "" {
		if err := en.join(flags.Name); err != nil {
			color.Red("Connection error, exiting: %s", err)
			return
		}
	}

	p := tea.NewProgram(newModel(en, getMsgChan(conn, logger), flags.Name), tea.WithAltScreen())
	if err := p.Start(); err != nil {
		color.Red("Error: %s", err)
		logger.Errorf("UI error: %v", err)
	}
}
