package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/todo-api/internal/utils"
)

// Token mirrors the 'auth_tokens' table. The key is the opaque bearer
// credential handed to clients; one user may hold several active tokens at
// once (multi-device).
type Token struct {
	ID        uint64
	Key       string
	UserID    uint64
	IsActive  bool
	LastUsed  *time.Time
	CreatedAt time.Time
}

// TokenRepo persists opaque credentials. An optional TokenCache fronts
// FindActive; a nil cache disables it.
type TokenRepo struct {
	DB    *sql.DB
	Cache *TokenCache
}

func NewTokenRepo(db *sql.DB, cache *TokenCache) *TokenRepo {
	return &TokenRepo{DB: db, Cache: cache}
}

// Issue inserts a fresh credential for the user and returns the stored row.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64) (Token, error) {
	key := utils.NewTokenKey()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_tokens (token_key, user_id) VALUES (?,?)",
		key, userID)
	if err != nil {
		return Token{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Token{}, err
	}
	t := Token{ID: uint64(id)}
	err = r.DB.QueryRowContext(ctx,
		"SELECT token_key, COALESCE(user_id,0), is_active, last_used, created_at FROM auth_tokens WHERE id=?",
		t.ID).Scan(&t.Key, &t.UserID, &t.IsActive, &t.LastUsed, &t.CreatedAt)
	if err != nil {
		return Token{}, err
	}
	return t, nil
}

// IssueOrGet returns the user's oldest active credential, issuing one when
// none exists. Login and external-auth reuse sessions through this path.
func (r *TokenRepo) IssueOrGet(ctx context.Context, userID uint64) (Token, error) {
	var t Token
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token_key, COALESCE(user_id,0), is_active, last_used, created_at FROM auth_tokens WHERE user_id=? AND is_active=1 ORDER BY id LIMIT 1",
		userID).Scan(&t.ID, &t.Key, &t.UserID, &t.IsActive, &t.LastUsed, &t.CreatedAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Token{}, err
	}
	return r.Issue(ctx, userID)
}

// FindActive resolves a key to its credential and owner. Only active rows
// with a live user reference qualify; anything else is ErrTokenNotFound.
// Cache hits skip the join entirely.
func (r *TokenRepo) FindActive(ctx context.Context, key string) (Token, User, error) {
	if t, u, ok := r.Cache.Get(ctx, key); ok {
		return t, u, nil
	}
	var (
		t Token
		u User
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.id, t.token_key, COALESCE(t.user_id,0), t.is_active, t.last_used, t.created_at,
		        u.id, u.email, u.password_hash, u.is_superuser, u.created_at, u.updated_at
		 FROM auth_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.token_key=? AND t.is_active=1 LIMIT 1`,
		key).Scan(
		&t.ID, &t.Key, &t.UserID, &t.IsActive, &t.LastUsed, &t.CreatedAt,
		&u.ID, &u.Email, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, User{}, ErrTokenNotFound
		}
		return Token{}, User{}, err
	}
	r.Cache.Set(ctx, t, u)
	return t, u, nil
}

// Touch marks the credential as used now. Callers fire and forget.
func (r *TokenRepo) Touch(ctx context.Context, key string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_tokens SET last_used=NOW() WHERE token_key=?", key)
	return err
}

// Revoke deletes the credential matching both user and key. Requiring the
// pair stops a user from revoking someone else's session by guessing keys.
func (r *TokenRepo) Revoke(ctx context.Context, userID uint64, key string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE user_id=? AND token_key=?",
		userID, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	r.Cache.Del(ctx, key)
	return nil
}
