package main

import (
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/burntcarrot/lseqpad/commons"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// defaultDocument is used by clients that do not ask for a document.
const defaultDocument = "default"

// client is a connection to a single replica.
type client struct {
	conn     *websocket.Conn
	id       uuid.UUID
	document string
	username string

	// writeMu serializes writes; a websocket connection supports one concurrent writer.
	writeMu sync.Mutex
}

func (c *client) send(msg commons.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// envelope is a message read from a client, along with its sender.
type envelope struct {
	msg    commons.Message
	sender *client
}

// hub relays messages between the replicas of the same document.
// It never looks into the CRDT content of the messages.
type hub struct {
	upgrader websocket.Upgrader

	// mu guards clients.
	mu      sync.RWMutex
	clients map[uuid.UUID]*client

	// messageChan carries client messages to handleMsg.
	messageChan chan envelope
}

func newHub() *hub {
	return &hub{
		upgrader:    websocket.Upgrader{},
		clients:     make(map[uuid.UUID]*client),
		messageChan: make(chan envelope),
	}
}

// ServeHTTP handles incoming HTTP connections by registering the client and reading messages from the connection.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Upgrade incoming HTTP connections to WebSocket connections
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection to websocket: %v", err)
		return
	}
	defer conn.Close()

	document := r.URL.Query().Get("doc")
	if document == "" {
		document = defaultDocument
	}

	// Generate a UUID for the client.
	c := &client{conn: conn, id: uuid.New(), document: document}
	peer := h.register(c)

	// The client uses its UUID as the origin of the identifiers it allocates.
	if err := c.send(commons.Message{Type: commons.SiteIDMessage, Text: c.id.String(), ID: c.id}); err != nil {
		log.Printf("Error sending site ID to %v: %v", c.id, err)
		h.unregister(c)
		return
	}

	// Ask a peer for the current state of the document.
	if peer != nil {
		if err := peer.send(commons.Message{Type: commons.DocReqMessage, ID: c.id}); err != nil {
			log.Printf("Error requesting document from %v: %v", peer.id, err)
		}
	}

	for {
		var msg commons.Message

		// Read message from the connection.
		err := conn.ReadJSON(&msg)
		if err != nil {
			log.Printf("Closing connection with ID: %v", c.id)
			h.unregister(c)
			h.broadcastUsers(c.document)
			break
		}

		// docSync messages carry the ID of the client they are meant for.
		if msg.Type != commons.DocSyncMessage {
			msg.ID = c.id
		}

		// Send message to messageChan.
		h.messageChan <- envelope{msg: msg, sender: c}
	}
}

// register adds c to the hub and returns another client editing the same document, if any.
func (h *hub) register(c *client) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	var peer *client
	for _, other := range h.clients {
		if other.document == c.document {
			peer = other
			break
		}
	}

	h.clients[c.id] = c
	return peer
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

// peers returns the clients editing document.
func (h *hub) peers(document string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var peers []*client
	for _, c := range h.clients {
		if c.document == document {
			peers = append(peers, c)
		}
	}
	return peers
}

// handleMsg listens to the messageChan channel and forwards messages to the other clients.
func (h *hub) handleMsg() {
	for e := range h.messageChan {
		msg, sender := e.msg, e.sender

		// Log each message to stdout.
		t := time.Now().Format(time.ANSIC)
		switch msg.Type {
		case commons.OperationMessage:
			color.Green("%s >> %s %s %v (%s)\n", t, sender.id, msg.Operation.Type, msg.Operation.Path, sender.document)
		case commons.JoinMessage:
			color.Green("%s >> %s joined %s\n", t, msg.Username, sender.document)
		default:
			color.Green("%s >> %s: %s\n", t, msg.Type, sender.id)
		}

		switch msg.Type {
		case commons.DocSyncMessage:
			h.sendTo(msg.ID, msg)
			continue
		case commons.JoinMessage:
			h.mu.Lock()
			sender.username = msg.Username
			h.mu.Unlock()
		}

		// Broadcast to the other clients of the document.
		for _, c := range h.peers(sender.document) {
			// Check the UUID to prevent sending messages to their origin.
			if c.id == sender.id {
				continue
			}
			h.write(c, msg)
		}

		if msg.Type == commons.JoinMessage {
			h.broadcastUsers(sender.document)
		}
	}
}

// sendTo sends msg to the client identified by id.
func (h *hub) sendTo(id uuid.UUID, msg commons.Message) {
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()

	if !ok {
		log.Printf("Dropping %s for unknown client %v", msg.Type, id)
		return
	}
	h.write(c, msg)
}

// broadcastUsers sends the list of active users to every client of document.
func (h *hub) broadcastUsers(document string) {
	peers := h.peers(document)

	h.mu.RLock()
	var names []string
	for _, c := range peers {
		if c.username != "" {
			names = append(names, c.username)
		}
	}
	h.mu.RUnlock()
	sort.Strings(names)

	msg := commons.Message{Type: commons.UsersMessage, Text: strings.Join(names, ",")}
	for _, c := range peers {
		h.write(c, msg)
	}
}

// write sends msg to c, dropping the client if the connection is broken.
func (h *hub) write(c *client, msg commons.Message) {
	if err := c.send(msg); err != nil {
		log.Printf("Error sending message to client: %v", err)
		c.conn.Close()
		h.unregister(c)
	}
}
