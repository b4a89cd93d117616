package commons

import (
	"github.com/burntcarrot/lseqpad/crdt"
	"github.com/google/uuid"
)

// Message represents the message sent over the wire.
type Message struct {
	Username string `json:"username"`

	// Text represents the body of the message. This is currently used for joining messages, the siteID, and the list of active users.
	Text string `json:"text"`

	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the client's UUID. For docSync messages sent in reply to a docReq, it is the UUID of the requesting client.
	ID uuid.UUID `json:"ID"`

	// Operation represents the CRDT operation.
	Operation Operation `json:"operation"`

	// Document represents the atoms of the client's document. This is only sent when a client joins, due to the large size of documents.
	Document []crdt.Atom `json:"document,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

// Currently, lseqpad supports 6 message types:
// - docSync (for syncing documents)
// - docReq (for requesting documents)
// - SiteID (for generating site IDs)
// - join (for joining messages)
// - users (for the list of active users)
// - operation (for CRDT operations)

const (
	DocSyncMessage   MessageType = "docSync"
	DocReqMessage    MessageType = "docReq"
	SiteIDMessage    MessageType = "SiteID"
	JoinMessage      MessageType = "join"
	UsersMessage     MessageType = "users"
	OperationMessage MessageType = "operation"
)
