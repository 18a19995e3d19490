package handler_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/config"
	"github.com/iliyamo/todo-api/internal/handler"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/oauth"
	"github.com/iliyamo/todo-api/internal/queue"
	"github.com/iliyamo/todo-api/internal/repository"
	"github.com/iliyamo/todo-api/internal/router"
)

// --- user store mock ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, cost)
	return args.Get(0).(uint64), args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(repository.User), args.Error(1)
}
func (m *mockUserStore) GetByID(ctx context.Context, id uint64) (repository.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.User), args.Error(1)
}
func (m *mockUserStore) GetOrCreateByEmail(ctx context.Context, email string) (repository.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(repository.User), args.Error(1)
}
func (m *mockUserStore) List(ctx context.Context) ([]repository.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.User), args.Error(1)
}

var _ repository.UserStore = (*mockUserStore)(nil)

// --- in-memory token store ---

// fakeTokenStore keeps credentials in a map, enough to drive the auth
// middleware and the issue/revoke paths end to end.
type fakeTokenStore struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]repository.Token
	owners map[string]repository.User
	users  map[uint64]repository.User
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		tokens: map[string]repository.Token{},
		owners: map[string]repository.User{},
		users:  map[uint64]repository.User{},
	}
}

func (f *fakeTokenStore) addUser(u repository.User) { f.users[u.ID] = u }

// addKey registers a pre-baked credential for a user.
func (f *fakeTokenStore) addKey(key string, u repository.User) {
	f.users[u.ID] = u
	f.tokens[key] = repository.Token{Key: key, UserID: u.ID, IsActive: true}
	f.owners[key] = u
}

func (f *fakeTokenStore) Issue(ctx context.Context, userID uint64) (repository.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := fmt.Sprintf("issued-key-%d", f.seq)
	t := repository.Token{Key: key, UserID: userID, IsActive: true}
	f.tokens[key] = t
	f.owners[key] = f.users[userID]
	return t, nil
}

func (f *fakeTokenStore) IssueOrGet(ctx context.Context, userID uint64) (repository.Token, error) {
	f.mu.Lock()
	for _, t := range f.tokens {
		if t.UserID == userID && t.IsActive {
			f.mu.Unlock()
			return t, nil
		}
	}
	f.mu.Unlock()
	return f.Issue(ctx, userID)
}

func (f *fakeTokenStore) FindActive(ctx context.Context, key string) (repository.Token, repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[key]
	if !ok || !t.IsActive {
		return repository.Token{}, repository.User{}, repository.ErrTokenNotFound
	}
	return t, f.owners[key], nil
}

func (f *fakeTokenStore) Touch(ctx context.Context, key string) error { return nil }

func (f *fakeTokenStore) Revoke(ctx context.Context, userID uint64, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[key]
	if !ok || t.UserID != userID {
		return repository.ErrTokenNotFound
	}
	delete(f.tokens, key)
	delete(f.owners, key)
	return nil
}

var _ repository.TokenStore = (*fakeTokenStore)(nil)

// --- in-memory todo store ---

type fakeTodoStore struct {
	mu    sync.Mutex
	seq   int
	items []repository.Todo
}

func newFakeTodoStore() *fakeTodoStore { return &fakeTodoStore{} }

func (f *fakeTodoStore) List(ctx context.Context, ownerID uint64) ([]repository.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []repository.Todo{}
	// Insertion order stands in for id order; newest first.
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == ownerID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeTodoStore) Get(ctx context.Context, ownerID uint64, id string) (repository.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.ID == id && t.UserID == ownerID {
			return t, nil
		}
	}
	return repository.Todo{}, repository.ErrTodoNotFound
}

func (f *fakeTodoStore) Create(ctx context.Context, ownerID uint64, name string, description *string) (repository.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := repository.Todo{
		ID:          fmt.Sprintf("%032x", f.seq),
		UserID:      ownerID,
		Name:        name,
		Description: description,
	}
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeTodoStore) Update(ctx context.Context, ownerID uint64, id string, patch repository.TodoPatch) (repository.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.items {
		if t.ID != id || t.UserID != ownerID {
			continue
		}
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = patch.Description
		}
		if patch.Done != nil {
			t.Done = *patch.Done
		}
		f.items[i] = t
		return t, nil
	}
	return repository.Todo{}, repository.ErrTodoNotFound
}

func (f *fakeTodoStore) Delete(ctx context.Context, ownerID uint64, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.items {
		if t.ID == id && t.UserID == ownerID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrTodoNotFound
}

var _ repository.TodoStore = (*fakeTodoStore)(nil)

// --- publisher fake ---

type publishedEvent struct {
	Topic string
	Event queue.TodoEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, event queue.TodoEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Topic: topic, Event: event})
	return nil
}

func (f *fakePublisher) byType(typ string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []publishedEvent{}
	for _, e := range f.events {
		if e.Event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

var _ queue.Publisher = (*fakePublisher)(nil)

// --- oauth provider fake ---

type fakeProvider struct {
	email string
	err   error
}

func (f *fakeProvider) Userinfo(ctx context.Context, accessToken string) (oauth.UserInfo, error) {
	if f.err != nil {
		return oauth.UserInfo{}, f.err
	}
	return oauth.UserInfo{Email: f.email}, nil
}

var _ oauth.Provider = (*fakeProvider)(nil)

// --- server builder ---

func newTestServer(users repository.UserStore, tokens repository.TokenStore, todos repository.TodoStore, pub queue.Publisher, google oauth.Provider) *echo.Echo {
	logger := zap.NewNop().Sugar()
	cfg := config.Config{BcryptCost: 4}

	e := echo.New()
	e.HTTPErrorHandler = apierr.NewHTTPErrorHandler(logger)
	e.Use(middleware.CaptureBody)
	e.Use(middleware.TokenAuth(tokens, logger))

	router.Register(e,
		handler.NewAccountHandler(cfg, users, tokens, google, logger),
		handler.NewTodoHandler(todos, pub, logger),
	)
	return e
}
