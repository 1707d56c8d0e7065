package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/messagely/apiserver/types"
)

// Postgres error codes mapped to store sentinels.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.JoinAt = now
	user.LastLoginAt = &now

	const query = `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING username`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.JoinAt,
		user.LastLoginAt,
	).Scan(&user.Username); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = $1`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.JoinAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.UserSummary, error) {
	const query = `
		SELECT username, first_name, last_name
		FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.UserSummary, 0)
	for rows.Next() {
		var user types.UserSummary
		if err := rows.Scan(&user.Username, &user.FirstName, &user.LastName); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateLastLogin stamps the user's last_login_at and returns the new value.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, username string) (time.Time, error) {
	const query = `
		UPDATE users
		SET last_login_at = current_timestamp
		WHERE username = $1
		RETURNING last_login_at`
	var lastLogin time.Time
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return lastLogin, nil
}

// MessagesFrom returns messages sent by the user, each joined with the
// recipient's public profile.
func (r *UserRepository) MessagesFrom(ctx context.Context, username string) ([]types.UserMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.to_username = u.username
		WHERE m.from_username = $1
		ORDER BY m.id`
	return r.listUserMessages(ctx, query, username, false)
}

// MessagesTo returns messages received by the user, each joined with the
// sender's public profile.
func (r *UserRepository) MessagesTo(ctx context.Context, username string) ([]types.UserMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON m.from_username = u.username
		WHERE m.to_username = $1
		ORDER BY m.id`
	return r.listUserMessages(ctx, query, username, true)
}

func (r *UserRepository) listUserMessages(ctx context.Context, query, username string, counterpartIsSender bool) ([]types.UserMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.UserMessage, 0)
	for rows.Next() {
		var msg types.UserMessage
		var counterpart types.UserProfile
		if err := rows.Scan(
			&msg.ID,
			&msg.Body,
			&msg.SentAt,
			&msg.ReadAt,
			&counterpart.Username,
			&counterpart.FirstName,
			&counterpart.LastName,
			&counterpart.Phone,
		); err != nil {
			return nil, err
		}
		if counterpartIsSender {
			msg.FromUser = &counterpart
		} else {
			msg.ToUser = &counterpart
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
