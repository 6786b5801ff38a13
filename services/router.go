// Package services holds the routing and history logic of the relay.
// The router is the single place where "what happens when a message is
// sent" is decided; transports only parse envelopes and call in.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
)

// Censor rewrites message content before it is persisted, so storage,
// live delivery and history all see the same text.
type Censor interface {
	Censor(content string) string
}

type Router struct {
	log        *slog.Logger
	registry   contract.IRegistry
	repository repositories.IMessageRepository
	dispatcher contract.Dispatcher
	censor     Censor // nil when moderation is disabled
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	repository repositories.IMessageRepository, dispatcher contract.Dispatcher,
	censor Censor) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		repository: repository,
		dispatcher: dispatcher,
		censor:     censor,
	}
}

// Connect registers the user's presence. A reconnect overwrites the
// previous mapping; the superseded connection is left to drain until
// its own disconnect arrives.
func (r *Router) Connect(userID string, handle domain.ConnectionID) {
	r.registry.Register(userID, handle)
	r.log.Info("user connected", "user_id", userID, "handle", handle)
}

// Disconnect removes presence for the given handle. The removal is
// guarded: if the user already reconnected, this is a no-op and no
// notification is emitted, so a stale session can never announce the
// departure of a live one.
func (r *Router) Disconnect(handle domain.ConnectionID) {
	userID, ok := r.registry.ReverseLookup(handle)
	if !ok {
		return
	}
	if r.registry.Unregister(userID, handle) {
		r.log.Info("user disconnected", "user_id", userID)
		r.dispatcher.NotifyAll(event.UserDisconnected{UserID: userID})
	}
}

// SendPrivate persists a private message and attempts live delivery.
// Durability comes first: delivery never happens for a message that
// failed to persist, and a delivery failure is never retried because
// the recipient will see the message on their next history fetch.
func (r *Router) SendPrivate(ctx context.Context, senderHandle domain.ConnectionID, receiverID, content string) error {
	senderID, ok := r.registry.ReverseLookup(senderHandle)
	if !ok {
		return errors.ErrUnknownSender
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return errors.ErrEmptyContent
	}
	if receiverID = strings.TrimSpace(receiverID); receiverID == "" {
		return errors.ErrMissingReceiver
	}
	if r.censor != nil {
		content = r.censor.Censor(content)
	}

	message, err := r.repository.Append(ctx, domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	})
	if err != nil {
		return fmt.Errorf("persist private message: %w", err)
	}

	receiverHandle, online := r.registry.Lookup(receiverID)
	if !online {
		r.deliver(senderHandle, event.SystemNotice{
			Text: fmt.Sprintf("message saved, %s is offline", receiverID),
		})
		return nil
	}

	r.deliver(receiverHandle, event.MessageReceived{
		SenderID: senderID,
		Content:  message.Content,
		At:       message.CreatedAt,
	})
	r.deliver(senderHandle, event.MessageSaved{
		ReceiverID: receiverID,
		Content:    message.Content,
		At:         message.CreatedAt,
	})
	return nil
}

// Broadcast persists a broadcast and delivers it to every registered
// connection, the sender's included. Recipients are independent: one
// stale handle never blocks or fails the others.
func (r *Router) Broadcast(ctx context.Context, senderHandle domain.ConnectionID, content string) error {
	senderID, ok := r.registry.ReverseLookup(senderHandle)
	if !ok {
		return errors.ErrUnknownSender
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return errors.ErrEmptyContent
	}
	if r.censor != nil {
		content = r.censor.Censor(content)
	}

	message, err := r.repository.Append(ctx, domain.Message{
		SenderID:    senderID,
		Content:     content,
		IsBroadcast: true,
	})
	if err != nil {
		return fmt.Errorf("persist broadcast: %w", err)
	}

	for _, handle := range r.registry.Snapshot() {
		r.deliver(handle, event.MessageReceived{
			SenderID:    senderID,
			Content:     message.Content,
			IsBroadcast: true,
			At:          message.CreatedAt,
		})
	}
	return nil
}

// deliver is best-effort: the message is already durable, so a stale
// handle is logged and swallowed.
func (r *Router) deliver(handle domain.ConnectionID, e event.Event) {
	if err := r.dispatcher.Deliver(handle, e); err != nil {
		r.log.Warn("delivery failed",
			"handle", handle,
			"event", string(e.Kind()),
			"err", err)
	}
}
