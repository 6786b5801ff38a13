package ws

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain/event"
)

// Inbound command types accepted on the persistent connection.
const (
	TypeSend      = "send"
	TypeBroadcast = "broadcast"
	TypeHistory   = "history"
)

// Envelope is the JSON frame exchanged on the websocket, both
// directions. Outbound frames use the event kind as their type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HistoryResponse answers a self-history request made over the live
// connection. Entries carry the same formatting as the HTTP channel.
type HistoryResponse struct {
	Entries []string `json:"entries"`
}

// ErrorResponse reports a rejected command back to its own sender.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newEnvelope(typ string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: raw}, nil
}

// envelopeFor wraps an outbound event into its wire frame.
func envelopeFor(e event.Event) (Envelope, error) {
	return newEnvelope(string(e.Kind()), e)
}
