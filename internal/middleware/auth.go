package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/repository"
)

// Context keys set by TokenAuth.
const (
	ctxUserKey      = "user"
	ctxTokenKey     = "token_key"
	ctxUserEmailKey = "user_email"
)

// TokenAuth resolves the Authorization header into an identity and stores
// it in the request context. The header contract is "<scheme> <key>" with
// exactly one separating space; the scheme value itself is not checked.
//
// Three outcomes are possible:
//   - no header, or a header that is not exactly two parts: the request
//     proceeds anonymously and downstream policy decides whether that is
//     acceptable;
//   - a well-formed header whose key matches no active credential: a hard
//     authentication failure, distinct from the anonymous case;
//   - a match: user and credential enter the context and the credential's
//     last-used stamp is touched without blocking the request.
func TokenAuth(tokens repository.TokenStore, logger *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 {
				return next(c)
			}

			tok, user, err := tokens.FindActive(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, repository.ErrTokenNotFound) {
					return apierr.InvalidToken()
				}
				return err
			}

			c.Set(ctxUserKey, user)
			c.Set(ctxTokenKey, tok.Key)
			c.Set(ctxUserEmailKey, user.Email)

			// Fire-and-forget: a failed touch must never affect the request,
			// so it runs on its own context and only gets logged.
			go func(key string) {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := tokens.Touch(ctx, key); err != nil {
					logger.Warnw("token touch failed", "error", err)
				}
			}(tok.Key)

			return next(c)
		}
	}
}

// RequireAuth aborts anonymous requests. It assumes TokenAuth ran earlier
// in the chain.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CurrentUser(c); !ok {
			return apierr.AccessDenied()
		}
		return next(c)
	}
}

// RequireAdmin aborts requests from anonymous users and from identities
// without the superuser flag. Failures report as access denied, not
// forbidden: admin surfaces do not advertise their existence.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok || !u.IsSuperuser {
			return apierr.AccessDenied()
		}
		return next(c)
	}
}

// CurrentUser returns the authenticated user stored by TokenAuth.
func CurrentUser(c echo.Context) (repository.User, bool) {
	u, ok := c.Get(ctxUserKey).(repository.User)
	return u, ok
}

// CurrentTokenKey returns the opaque key this request authenticated with.
func CurrentTokenKey(c echo.Context) string {
	k, _ := c.Get(ctxTokenKey).(string)
	return k
}
