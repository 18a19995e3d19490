package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/config"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/oauth"
	"github.com/iliyamo/todo-api/internal/repository"
	"github.com/iliyamo/todo-api/internal/utils"
)

// AccountHandler bundles dependencies for account endpoints.
type AccountHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens repository.TokenStore
	Google oauth.Provider
	Logger *zap.SugaredLogger
}

func NewAccountHandler(cfg config.Config, users repository.UserStore, tokens repository.TokenStore, google oauth.Provider, logger *zap.SugaredLogger) *AccountHandler {
	return &AccountHandler{Cfg: cfg, Users: users, Tokens: tokens, Google: google, Logger: logger}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type googleAuthReq struct {
	AccessToken string `json:"access_token"`
}
type tokenResp struct {
	Token string `json:"token"`
}
type userResp struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
}

// validateCredentials normalizes and checks the register/login payload
// shape: a parseable email address and a non-empty password of at most 128
// characters.
func validateCredentials(req *credentialsReq) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apierr.Validation("Email and password are required.")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apierr.Validation("Enter a valid email address.")
	}
	if len(req.Password) > 128 {
		return apierr.Validation("Password is too long.")
	}
	return nil
}

// Register creates a user and returns a fresh opaque token.
func (h *AccountHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return apierr.Validation("Invalid request body.")
	}
	if err := validateCredentials(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apierr.Conflict("user_exist", "User already exist.")
		}
		return err
	}

	tok, err := h.Tokens.Issue(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Key})
}

// Login verifies a password credential and returns a token, reusing an
// existing active session when the user already holds one.
func (h *AccountHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return apierr.Validation("Invalid request body.")
	}
	if err := validateCredentials(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.InvalidCredential()
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apierr.InvalidCredential()
	}

	tok, err := h.Tokens.IssueOrGet(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Key})
}

// GoogleAuth exchanges a provider access token for a local session. The
// local account is keyed by the provider-supplied email and created on
// first sight, with no password set.
func (h *AccountHandler) GoogleAuth(c echo.Context) error {
	var req googleAuthReq
	if err := c.Bind(&req); err != nil {
		return apierr.Validation("Invalid request body.")
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return apierr.Validation("access_token is required.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	info, err := h.Google.Userinfo(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidCredential) {
			return apierr.InvalidCredential()
		}
		return err
	}

	u, err := h.Users.GetOrCreateByEmail(ctx, info.Email)
	if err != nil {
		return err
	}
	tok, err := h.Tokens.IssueOrGet(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Key})
}

// Logout revokes exactly the credential this request authenticated with.
// Other sessions of the same user stay valid.
func (h *AccountHandler) Logout(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	key := middleware.CurrentTokenKey(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, u.ID, key); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apierr.NotFound()
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the public fields of the current identity.
func (h *AccountHandler) Profile(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Email: u.Email, IsSuperuser: u.IsSuperuser})
}

// ListUsers returns every account. Admin only.
func (h *AccountHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, userResp{ID: u.ID, Email: u.Email, IsSuperuser: u.IsSuperuser})
	}
	return c.JSON(http.StatusOK, out)
}
