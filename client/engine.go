package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/burntcarrot/lseqpad/client/editor"
	"github.com/burntcarrot/lseqpad/commons"
	"github.com/burntcarrot/lseqpad/crdt"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type ConnReader interface {
	ReadJSON(v interface{}) error
}

type ConnWriter interface {
	WriteJSON(v interface{}) error
}

// engine keeps the local document and the editor in sync.
// Local edits go to the document first and are then sent over the connection;
// remote messages are applied to the document and the editor is refreshed from it.
// An engine is driven by a single goroutine, the UI's update loop.
type engine struct {
	doc    *crdt.Document
	editor *editor.Editor
	conn   ConnWriter

	documentID string
	debug      bool
	logger     logrus.FieldLogger
}

func newEngine(doc *crdt.Document, e *editor.Editor, conn ConnWriter, documentID string, logger logrus.FieldLogger, debug bool) *engine {
	return &engine{
		doc:        doc,
		editor:     e,
		conn:       conn,
		documentID: documentID,
		debug:      debug,
		logger:     logger,
	}
}

// send writes msg to the connection.
func (en *engine) send(msg commons.Message) error {
	if err := en.conn.WriteJSON(msg); err != nil {
		en.logger.WithError(err).Error("failed to send message")
		en.editor.SetStatusBar("lost connection!")
		return err
	}
	return nil
}

// join announces the user to the other clients of the document.
func (en *engine) join(username string) error {
	en.logger.Infof("JOIN: %s", username)
	return en.send(commons.Message{Type: commons.JoinMessage, Username: username})
}

// insert inserts r at the cursor and sends the operation.
func (en *engine) insert(r rune) error {
	cursor := en.editor.Cursor

	atom, err := en.doc.LocalInsert(cursor, string(r))
	if err != nil {
		en.logger.WithError(err).Errorf("LOCAL INSERT failed at cursor position %v", cursor)
		if errors.Is(err, crdt.ErrInvalidAllocation) {
			en.editor.SetStatusBar("insert failed: no room between the neighboring characters!")
		} else {
			en.editor.SetStatusBar("insert failed!")
		}
		return err
	}
	en.logger.Infof("LOCAL INSERT: %q at cursor position %v, ID: %v", r, cursor, atom.ID)

	en.editor.AddRune(r)

	return en.send(commons.Message{Type: commons.OperationMessage, Operation: commons.InsertOp(en.documentID, atom)})
}

// deleteBackward deletes the character in front of the cursor (backspace).
func (en *engine) deleteBackward() error {
	if en.editor.Cursor == 0 {
		return nil
	}

	en.editor.MoveCursor(-1, 0)
	return en.delete(en.editor.Cursor)
}

// deleteForward deletes the character under the cursor (delete).
func (en *engine) deleteForward() error {
	return en.delete(en.editor.Cursor)
}

func (en *engine) delete(offset int) error {
	id, ok := en.doc.LocalDelete(offset)
	if !ok {
		return nil
	}
	en.logger.Infof("LOCAL DELETE: cursor position %v, ID: %v", offset, id)

	en.editor.SetText(en.doc.Content())

	return en.send(commons.Message{Type: commons.OperationMessage, Operation: commons.DeleteOp(en.documentID, id)})
}

// handleMsg updates the document with the contents of the message.
func (en *engine) handleMsg(msg commons.Message) {
	switch msg.Type {
	case commons.DocSyncMessage:
		en.logger.Infof("DOCSYNC RECEIVED, %d atoms", len(msg.Document))

		if err := en.doc.Load(msg.Document); err != nil {
			en.logger.WithError(err).Error("failed to load document")
			en.editor.SetStatusBar("failed to load document!")
			return
		}

	case commons.DocReqMessage:
		en.logger.Infof("DOCREQ RECEIVED, sending local document to %v", msg.ID)

		_ = en.send(commons.Message{Type: commons.DocSyncMessage, Document: en.doc.Atoms(), ID: msg.ID})
		return

	case commons.SiteIDMessage:
		en.doc.SetOrigin(msg.Text)
		en.logger.Infof("SITE ID %v, clock %d", msg.Text, en.doc.Clock())
		return

	case commons.JoinMessage:
		en.editor.SetStatusBar(fmt.Sprintf("%s has joined the session!", msg.Username))
		return

	case commons.UsersMessage:
		en.editor.Users = nil
		if msg.Text != "" {
			en.editor.Users = strings.Split(msg.Text, ",")
		}
		return

	case commons.OperationMessage:
		if err := en.applyOperation(msg.Operation); err != nil {
			en.logger.WithError(err).Errorf("failed to apply %s operation", msg.Operation.Type)
			return
		}

	default:
		en.logger.Warnf("unknown message type %q", msg.Type)
		return
	}

	// printDoc is toggled via the `-debug` flag, the document state takes up a lot of log space.
	if en.debug {
		printDoc(en.logger, en.doc)
	}

	en.editor.SetText(en.doc.Content())
}

// applyOperation applies a remote operation and moves the cursor along with the text in front of it.
func (en *engine) applyOperation(op commons.Operation) error {
	if op.DocumentID != en.documentID {
		en.logger.Warnf("ignoring operation for document %q", op.DocumentID)
		return nil
	}

	if err := op.Validate(); err != nil {
		return err
	}

	id := op.Identifier()
	offset, present := en.doc.Offset(id)

	if err := op.Apply(en.doc); err != nil {
		return err
	}

	switch op.Type {
	case commons.OperationInsert:
		en.logger.Infof("REMOTE INSERT: %q, ID: %v", op.Value, id)
		if present {
			return nil
		}
		if offset, ok := en.doc.Offset(id); ok && offset < en.editor.Cursor {
			en.editor.Cursor++
		}

	case commons.OperationDelete:
		en.logger.Infof("REMOTE DELETE: ID: %v", id)
		if present && offset < en.editor.Cursor {
			en.editor.Cursor--
		}
	}

	return nil
}

// getMsgChan returns a message channel that repeatedly reads from a websocket connection.
// The channel is closed once the connection fails.
func getMsgChan(conn ConnReader, logger logrus.FieldLogger) <-chan commons.Message {
	messageChan := make(chan commons.Message)
	go func() {
		defer close(messageChan)
		for {
			var msg commons.Message

			err := conn.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				return
			}

			logger.Debugf("message received: %+v", msg)

			messageChan <- msg
		}
	}()
	return messageChan
}
