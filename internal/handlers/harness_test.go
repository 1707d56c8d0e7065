package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// memStore is an in-memory stand-in for both repositories, with the same
// sentinel-error contract as the SQL stores.
type memStore struct {
	mu       sync.Mutex
	users    map[string]types.User
	order    []string
	messages map[int]types.Message
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]types.User),
		messages: make(map[int]types.Message),
	}
}

func (m *memStore) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Username]; exists {
		return types.User{}, store.ErrDuplicate
	}
	now := time.Now()
	user.JoinAt = now
	user.LastLoginAt = &now
	m.users[user.Username] = user
	m.order = append(m.order, user.Username)
	return user, nil
}

func (m *memStore) GetByUsername(ctx context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[username]
	if !exists {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memStore) List(ctx context.Context) ([]types.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]types.UserSummary, 0, len(m.order))
	for _, username := range m.order {
		user := m.users[username]
		summaries = append(summaries, types.UserSummary{
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
	return summaries, nil
}

func (m *memStore) UpdateLastLogin(ctx context.Context, username string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[username]
	if !exists {
		return time.Time{}, store.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	m.users[username] = user
	return now, nil
}

func (m *memStore) profile(username string) *types.UserProfile {
	user := m.users[username]
	return &types.UserProfile{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
}

func (m *memStore) MessagesFrom(ctx context.Context, username string) ([]types.UserMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([]types.UserMessage, 0)
	for id := 1; id <= m.nextID; id++ {
		msg, exists := m.messages[id]
		if !exists || msg.FromUsername != username {
			continue
		}
		messages = append(messages, types.UserMessage{
			ID: msg.ID, Body: msg.Body, SentAt: msg.SentAt, ReadAt: msg.ReadAt,
			ToUser: m.profile(msg.ToUsername),
		})
	}
	return messages, nil
}

func (m *memStore) MessagesTo(ctx context.Context, username string) ([]types.UserMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([]types.UserMessage, 0)
	for id := 1; id <= m.nextID; id++ {
		msg, exists := m.messages[id]
		if !exists || msg.ToUsername != username {
			continue
		}
		messages = append(messages, types.UserMessage{
			ID: msg.ID, Body: msg.Body, SentAt: msg.SentAt, ReadAt: msg.ReadAt,
			FromUser: m.profile(msg.FromUsername),
		})
	}
	return messages, nil
}

func (m *memStore) CreateMessage(ctx context.Context, msg types.Message) (types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	msg.SentAt = time.Now()
	msg.ReadAt = nil
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *memStore) GetMessage(ctx context.Context, id int) (types.MessageDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, exists := m.messages[id]
	if !exists {
		return types.MessageDetail{}, store.ErrNotFound
	}
	return types.MessageDetail{
		ID: msg.ID, Body: msg.Body, SentAt: msg.SentAt, ReadAt: msg.ReadAt,
		FromUser: *m.profile(msg.FromUsername),
		ToUser:   *m.profile(msg.ToUsername),
	}, nil
}

func (m *memStore) MarkRead(ctx context.Context, id int) (types.MessageReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, exists := m.messages[id]
	if !exists {
		return types.MessageReceipt{}, store.ErrNotFound
	}
	if msg.ReadAt == nil {
		now := time.Now()
		msg.ReadAt = &now
		m.messages[id] = msg
	}
	return types.MessageReceipt{ID: msg.ID, ReadAt: *msg.ReadAt}, nil
}

// messageRepoAdapter exposes the memStore's message methods under the
// MessageRepository method names.
type messageRepoAdapter struct{ *memStore }

func (a messageRepoAdapter) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	return a.CreateMessage(ctx, msg)
}

func (a messageRepoAdapter) Get(ctx context.Context, id int) (types.MessageDetail, error) {
	return a.GetMessage(ctx, id)
}

// newTestRouter assembles the routes the way the server does, backed by an
// in-memory store.
func newTestRouter() (*chi.Mux, *memStore) {
	mem := newMemStore()
	userService := services.NewUserService(mem, bcrypt.MinCost)
	messageService := services.NewMessageService(messageRepoAdapter{mem}, mem)
	authMiddleware := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret, time.Hour)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, authMiddleware)
	})
	router.Route("/messages", func(r chi.Router) {
		MessageRouter(r, messageService, authMiddleware)
	})
	return router, mem
}

func doJSON(t *testing.T, router http.Handler, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(rec.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func registerUser(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username":   username,
		"password":   "password",
		"first_name": "Test",
		"last_name":  "Testy",
		"phone":      "+14155550000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	resp := decodeBody[TokenResponse](t, rec)
	if resp.Token == "" {
		t.Fatalf("register %s: missing token", username)
	}
	return resp.Token
}

func sendMessage(t *testing.T, router http.Handler, token, to, body string) types.Message {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/messages", token, map[string]string{
		"to_username": to,
		"body":        body,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send message: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[MessageCreatedResponse](t, rec).Message
}
