//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"chat-relay/domain"
)

type IMessageRepository interface {
	// Append persists the message, assigning its id and UTC timestamp,
	// and returns the stored record.
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	// QueryForUser returns every message the user sent or received,
	// plus the broadcasts the user sent, ordered by timestamp ascending.
	QueryForUser(ctx context.Context, userID string) ([]domain.Message, error)
	// QueryForPair returns the private exchange between the two users in
	// both directions, plus broadcasts sent by either of them, ordered
	// by timestamp ascending.
	QueryForPair(ctx context.Context, userID, peerID string) ([]domain.Message, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL,
	receiver_id  TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	is_broadcast INTEGER NOT NULL DEFAULT 0,
	CHECK (is_broadcast = 1 OR receiver_id <> '')
);

CREATE INDEX IF NOT EXISTS idx_messages_sender   ON messages (sender_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages (receiver_id, created_at);
`

// OpenSQLite opens (or creates) the message database and applies the
// schema. WAL keeps the live connection path from blocking behind the
// query channel's reads.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

type MessageRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewMessageRepository(db *sqlx.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// messageRow is the storage shape of a message. Timestamps are stored
// as unix nanoseconds so ordering needs no string parsing; rowid keeps
// insertion order as the tie-break for equal timestamps.
type messageRow struct {
	ID          string `db:"id"`
	SenderID    string `db:"sender_id"`
	ReceiverID  string `db:"receiver_id"`
	Content     string `db:"content"`
	CreatedAt   int64  `db:"created_at"`
	IsBroadcast bool   `db:"is_broadcast"`
}

func (r MessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, created_at, is_broadcast)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID.String(),
		message.SenderID,
		message.ReceiverID,
		message.Content,
		message.CreatedAt.UnixNano(),
		message.IsBroadcast,
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}

	r.log.Debug("message persisted",
		"id", message.ID,
		"sender", message.SenderID,
		"broadcast", message.IsBroadcast)
	return message, nil
}

func (r MessageRepository) QueryForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, sender_id, receiver_id, content, created_at, is_broadcast
		 FROM messages
		 WHERE (is_broadcast = 0 AND (sender_id = ? OR receiver_id = ?))
		    OR (is_broadcast = 1 AND sender_id = ?)
		 ORDER BY created_at ASC, rowid ASC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages for user %s: %w", userID, err)
	}
	return toDomain(rows)
}

func (r MessageRepository) QueryForPair(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, sender_id, receiver_id, content, created_at, is_broadcast
		 FROM messages
		 WHERE (is_broadcast = 0 AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)))
		    OR (is_broadcast = 1 AND sender_id IN (?, ?))
		 ORDER BY created_at ASC, rowid ASC`,
		userID, peerID, peerID, userID, userID, peerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages for pair %s/%s: %w", userID, peerID, err)
	}
	return toDomain(rows)
}

func toDomain(rows []messageRow) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("corrupt message id %q: %w", row.ID, err)
		}
		messages = append(messages, domain.Message{
			ID:          id,
			SenderID:    row.SenderID,
			ReceiverID:  row.ReceiverID,
			Content:     row.Content,
			CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
			IsBroadcast: row.IsBroadcast,
		})
	}
	return messages, nil
}

// CountMessages reports the total number of stored messages, exposed
// through the debug endpoint.
func (r MessageRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
