package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnknownSender is returned when an inbound send or broadcast
	// arrives from a connection that never completed the connect
	// handshake. Nothing is persisted in that case.
	ErrUnknownSender = fmt.Errorf("unknown sender: connection has no presence entry")

	ErrEmptyContent    = fmt.Errorf("message content is empty")
	ErrMissingReceiver = fmt.Errorf("receiver id is required")
	ErrMissingUser     = fmt.Errorf("user id is required")
	ErrEmptyWords      = fmt.Errorf("no censored words have been found")
)

// MapToHTTPStatus translates core errors into HTTP status codes for the
// query channel. Anything unrecognized is an internal failure: store
// errors reach here wrapped, never as sentinels.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrUnknownSender):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, ErrEmptyContent),
		stderrors.Is(err, ErrMissingReceiver),
		stderrors.Is(err, ErrMissingUser):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
