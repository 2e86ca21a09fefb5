package proto

// Chat envelope types carried inside the encrypted channel. They are
// opaque to the relay; only room members can decrypt and dispatch them.
const (
	// TypeSecureMessage is a regular chat message.
	TypeSecureMessage = "secmsg"
	// TypeSystemMessage is generated locally by a client, not relayed.
	TypeSystemMessage = "sysmsg"
	// TypeFileMessage announces a file transfer; the bytes ride in the
	// envelope attachment.
	TypeFileMessage = "file"
	// TypeUserConnected and TypeUserDisconnected are presence notes
	// members send about themselves.
	TypeUserConnected    = "user_connected"
	TypeUserDisconnected = "user_disconnected"
)

// ChatEnvelope is the JSON head of an encrypted logical message.
type ChatEnvelope struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	Msg    string `json:"msg,omitempty"`
	// Name carries the file name for TypeFileMessage.
	Name string `json:"name,omitempty"`
}
