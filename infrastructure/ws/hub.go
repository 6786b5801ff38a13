package ws

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Conn wraps one live websocket. Gorilla allows a single concurrent
// writer, so every outbound frame goes through the mutex.
type Conn struct {
	handle domain.ConnectionID
	userID string

	mu   sync.Mutex
	sock *websocket.Conn
}

func newConn(sock *websocket.Conn, userID string, handle domain.ConnectionID) *Conn {
	return &Conn{sock: sock, userID: userID, handle: handle}
}

func (c *Conn) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(env)
}

func (c *Conn) Close() error {
	return c.sock.Close()
}

// Hub tracks live connections by handle and implements the transport
// dispatch contract consumed by the router. It deliberately knows
// nothing about user identity; presence owns that mapping.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnectionID]*Conn)}
}

func (h *Hub) Add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.handle] = c
}

func (h *Hub) Remove(handle domain.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, handle)
}

// Deliver pushes one event to one connection. A missing or failing
// handle is reported to the caller, which treats it as an ordinary
// per-recipient delivery failure.
func (h *Hub) Deliver(handle domain.ConnectionID, e event.Event) error {
	h.mu.RLock()
	c, ok := h.conns[handle]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no live connection for handle %s", handle)
	}

	env, err := envelopeFor(e)
	if err != nil {
		return err
	}
	return c.Send(env)
}

// NotifyAll pushes an event to every live connection, best-effort.
func (h *Hub) NotifyAll(e event.Event) {
	env, err := envelopeFor(e)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Send(env)
	}
}
