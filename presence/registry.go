// Package presence owns the ephemeral user ↔ connection table.
// Entries live for the duration of a session; nothing here is durable.
package presence

import (
	"sync"

	"chat-relay/domain"
)

// Registry maps user ids to connection handles and back. Forward and
// reverse maps are written under the same critical section, so they
// can never disagree and reverse lookups stay O(1) instead of scanning.
//
// At most one handle is mapped per user: a reconnect overwrites the
// entry and the superseded handle simply becomes unaddressable. The
// old physical connection is not closed here; its own disconnect will
// arrive later and hit the guarded Unregister as a no-op.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]domain.ConnectionID
	byConn map[domain.ConnectionID]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]domain.ConnectionID),
		byConn: make(map[domain.ConnectionID]string),
	}
}

// Register inserts or overwrites the mapping for userID. The previous
// handle, if any, is dropped from the reverse map so it can no longer
// resolve to this user.
func (r *Registry) Register(userID string, handle domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[userID]; ok {
		delete(r.byConn, prev)
	}
	r.byUser[userID] = handle
	r.byConn[handle] = userID
}

// Unregister removes the mapping only when the currently stored handle
// equals the given one. Disconnects are keyed by handle, not user: a
// user may have reconnected before the old session's disconnect event
// arrives, and that late event must not evict the newer session.
func (r *Registry) Unregister(userID string, handle domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID]
	if !ok || current != handle {
		return false
	}
	delete(r.byUser, userID)
	delete(r.byConn, handle)
	return true
}

func (r *Registry) Lookup(userID string) (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.byUser[userID]
	return handle, ok
}

func (r *Registry) ReverseLookup(handle domain.ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byConn[handle]
	return userID, ok
}

// Snapshot copies the current forward table. Callers iterate the copy
// without holding the registry lock, so a blocking transport send can
// never stall connects and disconnects.
func (r *Registry) Snapshot() map[string]domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.ConnectionID, len(r.byUser))
	for userID, handle := range r.byUser {
		out[userID] = handle
	}
	return out
}
