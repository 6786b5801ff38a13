// Package domain contains core concepts of the relay.
// This file defines the Message record and its invariants.
// Messages are immutable once persisted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionID is the opaque handle of one live connection session.
// It is distinct from user identity: a user reconnecting gets a new
// handle while keeping the same id.
type ConnectionID string

// Message is a single chat record. ID and CreatedAt are assigned by
// the store at persistence time, never by the client.
//
// Exactly one of the following holds for every stored message:
// IsBroadcast is true, or ReceiverID is a non-empty identity.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	ReceiverID  string // empty for broadcasts
	Content     string
	CreatedAt   time.Time
	IsBroadcast bool
}
