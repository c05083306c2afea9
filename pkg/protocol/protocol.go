package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gochat/pkg/errors"
)

// Identity is a verified user identity bound to a connection.
// Immutable once attested.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// FileUpload is an inbound attachment: original name plus base64 content.
// Data may be a bare base64 string or a data URL ("data:<mime>;base64,...").
type FileUpload struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// InboundMessage is the wire shape a client sends over the websocket.
type InboundMessage struct {
	Recipient string      `json:"recipient"`
	Text      string      `json:"text,omitempty"`
	File      *FileUpload `json:"file,omitempty"`
}

// Message is a relayed and persisted direct message. File holds the stored
// attachment name, not the content.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text,omitempty"`
	File      string    `json:"file,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RosterEntry is one live bound connection in the online roster.
// Multi-device users appear once per connection.
type RosterEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RosterBroadcast is pushed to every connection on any presence change.
type RosterBroadcast struct {
	Online []RosterEntry `json:"online"`
}

// ParseInbound decodes a raw websocket frame into an InboundMessage.
func ParseInbound(data []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.ErrMalformedPayload
	}
	return &msg, nil
}

// Validate checks the routing invariants: a recipient must be named and at
// least one of text/file must be present.
func (m *InboundMessage) Validate() error {
	if m.Recipient == "" {
		return errors.ErrMissingRecipient
	}
	if m.Text == "" && m.File == nil {
		return errors.ErrEmptyMessage
	}
	return nil
}

// EncodeRoster marshals a roster broadcast frame from the given entries.
// A nil slice encodes as an empty roster, not null.
func EncodeRoster(entries []RosterEntry) ([]byte, error) {
	if entries == nil {
		entries = []RosterEntry{}
	}
	return json.Marshal(&RosterBroadcast{Online: entries})
}

// NewMessage builds a Message with a fresh id and creation timestamp.
func NewMessage(sender, recipient, text, file string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		File:      file,
		CreatedAt: time.Now().UTC(),
	}
}
