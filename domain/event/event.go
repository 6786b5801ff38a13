// Package event defines the closed set of outbound events pushed to
// live connections. The transport maps each variant onto its wire
// envelope; nothing here knows about encodings or sockets.
package event

import "time"

type Kind string

const (
	KindMessageReceived  Kind = "message_received"
	KindMessageSaved     Kind = "message_saved"
	KindSystemNotice     Kind = "system_notice"
	KindUserDisconnected Kind = "user_disconnected"
)

type Event interface {
	Kind() Kind
}

// MessageReceived carries a message to its recipient (or to every
// connected user for broadcasts).
type MessageReceived struct {
	SenderID    string    `json:"sender_id"`
	Content     string    `json:"content"`
	IsBroadcast bool      `json:"is_broadcast"`
	At          time.Time `json:"at"`
}

func (MessageReceived) Kind() Kind { return KindMessageReceived }

// MessageSaved is the confirmation echo sent back to the sender once a
// private message is durable and delivered.
type MessageSaved struct {
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

func (MessageSaved) Kind() Kind { return KindMessageSaved }

// SystemNotice is a best-effort informational line for one user,
// e.g. "saved, recipient offline".
type SystemNotice struct {
	Text string `json:"text"`
}

func (SystemNotice) Kind() Kind { return KindSystemNotice }

// UserDisconnected tells everyone that a user's session ended.
type UserDisconnected struct {
	UserID string `json:"user_id"`
}

func (UserDisconnected) Kind() Kind { return KindUserDisconnected }
