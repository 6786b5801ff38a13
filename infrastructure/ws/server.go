package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/services"
)

// Server upgrades websocket connections and bridges them into the
// core: connect/disconnect signals, inbound commands, self-history.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	hub      *Hub
	router   *services.Router
	history  *services.HistoryService
}

func NewServer(log *slog.Logger, hub *Hub, router *services.Router, history *services.HistoryService) *Server {
	return &Server{
		log:     log,
		hub:     hub,
		router:  router,
		history: history,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS serves GET /ws?user_id=... Identity is asserted by the
// client; there is no authentication layer by design.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "user_id", userID, "err", err)
		return
	}

	handle := domain.ConnectionID(uuid.NewString())
	conn := newConn(sock, userID, handle)

	// The hub must know the handle before presence does, otherwise a
	// message routed right after Connect could miss the connection.
	s.hub.Add(conn)
	s.router.Connect(userID, handle)

	s.readLoop(conn)

	s.hub.Remove(handle)
	s.router.Disconnect(handle)
	_ = conn.Close()
}

func (s *Server) readLoop(c *Conn) {
	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws read ended", "user_id", c.userID, "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.reject(c, "malformed envelope")
			continue
		}
		s.dispatch(c, env)
	}
}

func (s *Server) dispatch(c *Conn, env Envelope) {
	ctx := context.Background()

	switch env.Type {
	case TypeSend:
		var cmd domain.SendCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			s.reject(c, "malformed send payload")
			return
		}
		if err := cmd.Validate(); err != nil {
			s.reject(c, err.Error())
			return
		}
		if err := s.router.SendPrivate(ctx, c.handle, cmd.ReceiverID, cmd.Content); err != nil {
			s.reject(c, err.Error())
		}

	case TypeBroadcast:
		var cmd domain.BroadcastCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			s.reject(c, "malformed broadcast payload")
			return
		}
		if err := cmd.Validate(); err != nil {
			s.reject(c, err.Error())
			return
		}
		if err := s.router.Broadcast(ctx, c.handle, cmd.Content); err != nil {
			s.reject(c, err.Error())
		}

	case TypeHistory:
		// The live connection only serves the caller's own history;
		// pairwise views go through the HTTP query channel.
		entries, err := s.history.GetHistory(ctx, c.userID, "")
		if err != nil {
			s.reject(c, "history unavailable")
			s.log.Error("self-history failed", "user_id", c.userID, "err", err)
			return
		}
		env, err := newEnvelope(TypeHistory, HistoryResponse{Entries: entries})
		if err != nil {
			return
		}
		if err := c.Send(env); err != nil {
			s.log.Warn("history push failed", "user_id", c.userID, "err", err)
		}

	default:
		s.reject(c, "unknown command "+env.Type)
	}
}

// reject tells the offending sender, and only them, why a command was
// refused. Delivery of the notice itself is best-effort.
func (s *Server) reject(c *Conn, reason string) {
	env, err := newEnvelope(string(event.KindSystemNotice), ErrorResponse{Error: reason})
	if err != nil {
		return
	}
	_ = c.Send(env)
}
