package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/messagely/apiserver/types"
)

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	const query = `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, current_timestamp)
		RETURNING id, sent_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		msg.FromUsername,
		msg.ToUsername,
		msg.Body,
	).Scan(&msg.ID, &msg.SentAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	msg.ReadAt = nil
	return msg, nil
}

func (r *MessageRepository) Get(ctx context.Context, id int) (types.MessageDetail, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			f.username, f.first_name, f.last_name, f.phone,
			t.username, t.first_name, t.last_name, t.phone
		FROM messages AS m
		JOIN users AS f ON m.from_username = f.username
		JOIN users AS t ON m.to_username = t.username
		WHERE m.id = $1`
	var msg types.MessageDetail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.Body,
		&msg.SentAt,
		&msg.ReadAt,
		&msg.FromUser.Username,
		&msg.FromUser.FirstName,
		&msg.FromUser.LastName,
		&msg.FromUser.Phone,
		&msg.ToUser.Username,
		&msg.ToUser.FirstName,
		&msg.ToUser.LastName,
		&msg.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MessageDetail{}, ErrNotFound
		}
		return types.MessageDetail{}, err
	}
	return msg, nil
}

// MarkRead stamps read_at on first call; repeat calls keep the original
// timestamp and re-confirm it.
func (r *MessageRepository) MarkRead(ctx context.Context, id int) (types.MessageReceipt, error) {
	const markQuery = `
		UPDATE messages
		SET read_at = current_timestamp
		WHERE id = $1 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, markQuery, id); err != nil {
		return types.MessageReceipt{}, err
	}

	const query = `SELECT id, read_at FROM messages WHERE id = $1`
	var receipt types.MessageReceipt
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&receipt.ID, &receipt.ReadAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MessageReceipt{}, ErrNotFound
		}
		return types.MessageReceipt{}, err
	}
	return receipt, nil
}
