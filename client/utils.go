package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/burntcarrot/lseqpad/crdt"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Flags represents the command-line flags that are passed to lseqpad's client.
type Flags struct {
	Server   string
	Secure   bool
	Document string
	Debug    bool
	Name     string
}

// parseFlags parses command-line flags.
func parseFlags() Flags {
	serverAddr := flag.String("server", "localhost:8080", "The network address of the server")
	useSecureConn := flag.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	document := flag.String("doc", "default", "The document to edit")
	enableDebug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	name := flag.String("name", "", "The username to join with; skips the login prompt")

	flag.Parse()

	return Flags{
		Server:   *serverAddr,
		Secure:   *useSecureConn,
		Document: *document,
		Debug:    *enableDebug,
		Name:     *name,
	}
}

// serverURL returns the WebSocket URL of the document on the server.
func serverURL(flags Flags) url.URL {
	scheme := "ws"
	if flags.Secure {
		scheme = "wss"
	}

	query := url.Values{}
	query.Set("doc", flags.Document)

	return url.URL{Scheme: scheme, Host: flags.Server, Path: "/", RawQuery: query.Encode()}
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	u := serverURL(flags)

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// ensureDirExists ensures that a directory exists, and if it isn't present, it tries to create a new one.
func ensureDirExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.Mkdir(path, 0700)
}

// logPaths returns the paths of the log files, inside ~/.lseqpad when the home directory is known.
func logPaths() (string, string, error) {
	logPath := "lseqpad.log"
	debugLogPath := "lseqpad-debug.log"

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return logPath, debugLogPath, nil
	}

	lseqpadDir := filepath.Join(homeDir, ".lseqpad")
	if err := ensureDirExists(lseqpadDir); err != nil {
		return "", "", err
	}

	return filepath.Join(lseqpadDir, logPath), filepath.Join(lseqpadDir, debugLogPath), nil
}

// setupLogger initializes the client's logger (logrus).
// Warnings and errors go to lseqpad.log, everything else to lseqpad-debug.log.
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	logPath, debugLogPath, err := logPaths()
	if err != nil {
		return nil, nil, err
	}

	// Open the log file and create if it does not exist.
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	// Create a separate log file for verbose logs.
	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		logFile.Close()
		return nil, nil, fmt.Errorf("open debug log file: %w", err)
	}

	configureLogger(logger, logFile, debugLogFile)

	return logFile, debugLogFile, nil
}

// configureLogger routes the logger's entries to w and debugW depending on their level.
func configureLogger(logger *logrus.Logger, w, debugW io.Writer) {
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&writer.Hook{
		Writer: w,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugW,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}

// printDoc "prints" the document state to the logs.
func printDoc(logger logrus.FieldLogger, doc *crdt.Document) {
	logger.Debugf("---DOCUMENT STATE---")
	for i, a := range doc.Atoms() {
		logger.Debugf("index: %v  value: %q  ID: %v", i, a.Value, a.ID)
	}
}
