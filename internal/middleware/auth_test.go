package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/repository"
)

// stubTokenStore resolves a single known key and counts touches.
type stubTokenStore struct {
	mu      sync.Mutex
	key     string
	user    repository.User
	touched int
}

func (s *stubTokenStore) Issue(ctx context.Context, userID uint64) (repository.Token, error) {
	return repository.Token{}, nil
}
func (s *stubTokenStore) IssueOrGet(ctx context.Context, userID uint64) (repository.Token, error) {
	return repository.Token{}, nil
}
func (s *stubTokenStore) FindActive(ctx context.Context, key string) (repository.Token, repository.User, error) {
	if key != s.key {
		return repository.Token{}, repository.User{}, repository.ErrTokenNotFound
	}
	return repository.Token{Key: key, UserID: s.user.ID, IsActive: true}, s.user, nil
}
func (s *stubTokenStore) Touch(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched++
	return nil
}
func (s *stubTokenStore) Revoke(ctx context.Context, userID uint64, key string) error { return nil }

func (s *stubTokenStore) touchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

var _ repository.TokenStore = (*stubTokenStore)(nil)

func newAuthTestServer(store repository.TokenStore) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apierr.NewHTTPErrorHandler(zap.NewNop().Sugar())
	e.Use(middleware.TokenAuth(store, zap.NewNop().Sugar()))
	e.GET("/open", func(c echo.Context) error {
		if _, ok := middleware.CurrentUser(c); ok {
			return c.String(http.StatusOK, "user")
		}
		return c.String(http.StatusOK, "anonymous")
	})
	e.GET("/private", func(c echo.Context) error {
		u, _ := middleware.CurrentUser(c)
		return c.String(http.StatusOK, u.Email)
	}, middleware.RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, "admin")
	}, middleware.RequireAdmin)
	return e
}

func TestTokenAuth_MissingHeaderIsAnonymous(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())
}

func TestTokenAuth_MalformedHeaderIsAnonymous(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	for _, header := range []string{"k1", "bearer k1 extra", "bearer  k1"} {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "header %q", header)
		assert.Equal(t, "anonymous", rr.Body.String(), "header %q", header)
	}
}

func TestTokenAuth_UnknownKeyIsHardFailure(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "bearer nope")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid Token Key","code":"invalid_token_key"}`, rr.Body.String())
}

func TestTokenAuth_ValidKeySetsIdentityAndTouches(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer k1")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a@b.com", rr.Body.String())
	// Touch runs detached from the request.
	assert.Eventually(t, func() bool { return store.touchCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestTokenAuth_SchemeIsNotValidated(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Whatever k1")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuth_AnonymousIsAccessDenied(t *testing.T) {
	store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
	e := newAuthTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	// 400, not 401: compatibility contract.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid or missing authorization.","code":"access_denied"}`, rr.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	t.Run("non-admin denied", func(t *testing.T) {
		store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "a@b.com"}}
		e := newAuthTestServer(store)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "bearer k1")
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		store := &stubTokenStore{key: "k1", user: repository.User{ID: 1, Email: "root@b.com", IsSuperuser: true}}
		e := newAuthTestServer(store)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "bearer k1")
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
