package services

import (
	"context"
	"errors"
	"time"

	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.UserSummary, error)
	UpdateLastLogin(ctx context.Context, username string) (time.Time, error)
	MessagesFrom(ctx context.Context, username string) ([]types.UserMessage, error)
	MessagesTo(ctx context.Context, username string) ([]types.UserMessage, error)
}

// RegisterParams carries the registration input.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserService encapsulates user and credential use-cases.
type UserService struct {
	repo       UserRepository
	bcryptCost int
}

func NewUserService(repo UserRepository, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: bcryptCost}
}

// Register hashes the password and stores the new user with join_at and
// last_login_at set to now. A taken username surfaces store.ErrDuplicate.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.Create(ctx, types.User{
		Username:     params.Username,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		PasswordHash: string(hashed),
	})
}

// Authenticate reports whether the credentials are valid. Unknown users and
// wrong passwords are indistinguishable to the caller. A successful check
// updates last_login_at as a side effect.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return false, nil
	}
	if _, err := s.repo.UpdateLastLogin(ctx, username); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) Get(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.UserSummary, error) {
	return s.repo.List(ctx)
}

func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]types.UserMessage, error) {
	return s.repo.MessagesFrom(ctx, username)
}

func (s *UserService) MessagesTo(ctx context.Context, username string) ([]types.UserMessage, error) {
	return s.repo.MessagesTo(ctx, username)
}
