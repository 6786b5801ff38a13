//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Dispatcher is the transport-side delivery capability consumed by the
// router. Deliver pushes one event to one live connection; a failure
// means the handle went stale between lookup and dispatch and is never
// fatal to the operation that triggered it. NotifyAll reaches every
// connection the transport currently knows about.
type Dispatcher interface {
	Deliver(handle domain.ConnectionID, e event.Event) error
	NotifyAll(e event.Event)
}

// IRegistry is the presence table: the live, addressable mapping from
// user identity to connection handle. All methods are safe under
// arbitrary concurrent connect/disconnect/lookup.
type IRegistry interface {
	Register(userID string, handle domain.ConnectionID)
	// Unregister removes the mapping only if the stored handle equals
	// the caller's, and reports whether a removal occurred. A late
	// disconnect from a superseded session must not evict the newer one.
	Unregister(userID string, handle domain.ConnectionID) bool
	Lookup(userID string) (domain.ConnectionID, bool)
	ReverseLookup(handle domain.ConnectionID) (string, bool)
	// Snapshot returns a copy of the current table, used for broadcast
	// fan-out. Delivery to a handle that disconnects after the snapshot
	// is an ordinary per-recipient failure.
	Snapshot() map[string]domain.ConnectionID
}
