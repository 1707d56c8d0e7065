package types

import "time"

// Message is a text message between two users.
type Message struct {
	ID           int        `json:"id" db:"id"`
	FromUsername string     `json:"from_username" db:"from_username"`
	ToUsername   string     `json:"to_username" db:"to_username"`
	Body         string     `json:"body" db:"body"`
	SentAt       time.Time  `json:"sent_at" db:"sent_at"`
	ReadAt       *time.Time `json:"read_at,omitempty" db:"read_at"`
}

// MessageDetail is a message with both parties' public profiles attached.
type MessageDetail struct {
	ID       int         `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserProfile `json:"from_user"`
	ToUser   UserProfile `json:"to_user"`
}

// UserMessage is one entry in a user's sent or received listing.
// Exactly one of FromUser/ToUser is set: the counterpart of the listed user.
type UserMessage struct {
	ID       int          `json:"id"`
	Body     string       `json:"body"`
	SentAt   time.Time    `json:"sent_at"`
	ReadAt   *time.Time   `json:"read_at"`
	FromUser *UserProfile `json:"from_user,omitempty"`
	ToUser   *UserProfile `json:"to_user,omitempty"`
}

// MessageReceipt confirms that a message has been marked read.
type MessageReceipt struct {
	ID     int       `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
