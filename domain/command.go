package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"chat-relay/errors"
)

var validate = validator.New()

// SendCommand is an inbound intent to send a private message.
// Content is trimmed before validation: a whitespace-only message is
// rejected, never persisted.
type SendCommand struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

func (c *SendCommand) Validate() error {
	c.ReceiverID = strings.TrimSpace(c.ReceiverID)
	c.Content = strings.TrimSpace(c.Content)
	if err := validate.Struct(c); err != nil {
		if c.ReceiverID == "" {
			return errors.ErrMissingReceiver
		}
		return errors.ErrEmptyContent
	}
	return nil
}

// BroadcastCommand is an inbound intent to message everyone.
type BroadcastCommand struct {
	Content string `json:"content" validate:"required"`
}

func (c *BroadcastCommand) Validate() error {
	c.Content = strings.TrimSpace(c.Content)
	if err := validate.Struct(c); err != nil {
		return errors.ErrEmptyContent
	}
	return nil
}

// HistoryQuery asks for the requester's history, optionally narrowed
// to the exchange with one peer.
type HistoryQuery struct {
	UserID      string `json:"user_id" validate:"required"`
	RecipientID string `json:"recipient_id,omitempty"`
}

func (q *HistoryQuery) Validate() error {
	q.UserID = strings.TrimSpace(q.UserID)
	q.RecipientID = strings.TrimSpace(q.RecipientID)
	if err := validate.Struct(q); err != nil {
		return errors.ErrMissingUser
	}
	return nil
}
