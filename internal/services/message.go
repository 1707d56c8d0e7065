package services

import (
	"context"
	"errors"

	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

// ErrUnknownRecipient is returned when a message is addressed to a
// nonexistent user.
var ErrUnknownRecipient = errors.New("unknown recipient")

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg types.Message) (types.Message, error)
	Get(ctx context.Context, id int) (types.MessageDetail, error)
	MarkRead(ctx context.Context, id int) (types.MessageReceipt, error)
}

// MessageService encapsulates message use-cases.
type MessageService struct {
	repo  MessageRepository
	users UserRepository
}

func NewMessageService(repo MessageRepository, users UserRepository) *MessageService {
	return &MessageService{repo: repo, users: users}
}

// Send stores a new message from one user to another. The sender is the
// authenticated caller; the recipient must exist.
func (s *MessageService) Send(ctx context.Context, from, to, body string) (types.Message, error) {
	if _, err := s.users.GetByUsername(ctx, to); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Message{}, ErrUnknownRecipient
		}
		return types.Message{}, err
	}
	return s.repo.Create(ctx, types.Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
	})
}

func (s *MessageService) Get(ctx context.Context, id int) (types.MessageDetail, error) {
	return s.repo.Get(ctx, id)
}

func (s *MessageService) MarkRead(ctx context.Context, id int) (types.MessageReceipt, error) {
	return s.repo.MarkRead(ctx, id)
}
