package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/repositories"
)

// timestampLayout renders the localized timestamp prefix of every
// history entry.
const timestampLayout = time.DateTime

// HistoryService is a read-only façade over the message store. Both
// access paths (live connection and the HTTP query channel) go through
// it, so ordering and formatting are identical everywhere.
type HistoryService struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
}

func NewHistoryService(log *slog.Logger, repository repositories.IMessageRepository) *HistoryService {
	return &HistoryService{log: log, repository: repository}
}

// GetHistory returns the requester's formatted history, oldest first.
// With an empty recipientID it is the "own history" view: everything
// the user sent or received plus the broadcasts the user sent. A
// broadcast merely received from someone else does not appear there.
// With a recipientID it is the pairwise view between the two users.
// An empty result is a success; a store failure yields no partial data.
func (s *HistoryService) GetHistory(ctx context.Context, userID, recipientID string) ([]string, error) {
	var (
		messages []domain.Message
		err      error
	)
	if recipientID == "" {
		messages, err = s.repository.QueryForUser(ctx, userID)
	} else {
		messages, err = s.repository.QueryForPair(ctx, userID, recipientID)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	s.log.Debug("history fetched", "user_id", userID, "recipient_id", recipientID, "count", len(messages))
	return lo.Map(messages, func(m domain.Message, _ int) string {
		return FormatEntry(userID, m)
	}), nil
}

// FormatEntry renders one message from the viewer's perspective:
//
//	[2026-01-02 15:04:05] alice (Broadcast): hello all
//	[2026-01-02 15:04:05] You → bob: hi
//	[2026-01-02 15:04:05] alice → You: hi
func FormatEntry(viewer string, m domain.Message) string {
	ts := m.CreatedAt.Local().Format(timestampLayout)
	if m.IsBroadcast {
		return fmt.Sprintf("[%s] %s (Broadcast): %s", ts, m.SenderID, m.Content)
	}

	sender := m.SenderID
	if sender == viewer {
		sender = "You"
	}
	receiver := m.ReceiverID
	if receiver == viewer {
		receiver = "You"
	}
	return fmt.Sprintf("[%s] %s → %s: %s", ts, sender, receiver, m.Content)
}
