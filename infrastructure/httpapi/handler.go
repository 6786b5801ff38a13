// Package httpapi exposes the request/response query channel. History
// is reachable here without a live connection: presence plays no part
// in answering these requests.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
)

type HistoryHandler struct {
	log     *slog.Logger
	history *services.HistoryService
}

func NewHistoryHandler(log *slog.Logger, history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{log: log, history: history}
}

// HistoryPayload is the JSON body of a successful history response.
// An empty Entries slice is a valid answer, distinct from an error.
type HistoryPayload struct {
	UserID      string   `json:"user_id"`
	RecipientID string   `json:"recipient_id,omitempty"`
	Entries     []string `json:"entries"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// GetHistory serves GET /history?user_id=X[&recipient_id=Y].
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	query := domain.HistoryQuery{
		UserID:      r.URL.Query().Get("user_id"),
		RecipientID: r.URL.Query().Get("recipient_id"),
	}
	if err := query.Validate(); err != nil {
		writeJSON(w, errors.MapToHTTPStatus(err), errorPayload{Error: err.Error()})
		return
	}

	entries, err := h.history.GetHistory(r.Context(), query.UserID, query.RecipientID)
	if err != nil {
		h.log.Error("history query failed",
			"user_id", query.UserID,
			"recipient_id", query.RecipientID,
			"err", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "history unavailable"})
		return
	}

	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, http.StatusOK, HistoryPayload{
		UserID:      query.UserID,
		RecipientID: query.RecipientID,
		Entries:     entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
