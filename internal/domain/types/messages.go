package types

// MessageType is the transport discriminator carried next to each ciphertext.
type MessageType string

const (
	// MessageTypePreKey carries a PreKeySignalMessage (session establishment).
	MessageTypePreKey MessageType = "pkmsg"
	// MessageTypeWhisper carries a SignalMessage on an established session.
	MessageTypeWhisper MessageType = "msg"
	// MessageTypeSenderKey carries a SenderKeyMessage for a group.
	MessageTypeSenderKey MessageType = "skmsg"
)

// Valid reports whether t is one of the known discriminators.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypePreKey, MessageTypeWhisper, MessageTypeSenderKey:
		return true
	}
	return false
}

// Envelope is the wire-format unit posted to and fetched from the relay.
// Payload is the serialized protocol message named by Type.
type Envelope struct {
	Type      MessageType    `json:"type"`
	From      SessionAddress `json:"from"`
	To        SessionAddress `json:"to"`
	GroupID   string         `json:"group_id,omitempty"`
	Payload   []byte         `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// DecryptedMessage is one inbound unit after decrypt-then-route. When Err is
// set the unit is lost and Plaintext is empty; Reverify marks failures that
// need the user to re-check the peer's identity.
type DecryptedMessage struct {
	From      SessionAddress `json:"from"`
	Type      MessageType    `json:"type"`
	GroupID   string         `json:"group_id,omitempty"`
	Plaintext []byte         `json:"plaintext,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Err       error          `json:"-"`
	Reverify  bool           `json:"reverify,omitempty"`
}
