package repository

import "context"

// UserStore is the persistence contract for user accounts. Handlers depend
// on this interface rather than the concrete repo so tests can substitute
// mocks.
type UserStore interface {
	// Create inserts a user with a bcrypt-hashed password and returns its ID.
	Create(ctx context.Context, email, password string, cost int) (uint64, error)
	// GetByEmail fetches a user by normalized email.
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByID fetches a user by id.
	GetByID(ctx context.Context, id uint64) (User, error)
	// GetOrCreateByEmail returns the user with the given email, creating a
	// passwordless record when none exists (external-auth path).
	GetOrCreateByEmail(ctx context.Context, email string) (User, error)
	// List returns all users (admin surface).
	List(ctx context.Context) ([]User, error)
}

// TokenStore is the persistence contract for opaque bearer credentials.
type TokenStore interface {
	// Issue creates a fresh credential for the user.
	Issue(ctx context.Context, userID uint64) (Token, error)
	// IssueOrGet returns an existing active credential for the user, or
	// issues one when none exists.
	IssueOrGet(ctx context.Context, userID uint64) (Token, error)
	// FindActive resolves an opaque key to its credential and owning user.
	// Returns ErrTokenNotFound when no active row matches.
	FindActive(ctx context.Context, key string) (Token, User, error)
	// Touch records the credential as used now. Callers treat this as
	// best-effort and never fail a request on its error.
	Touch(ctx context.Context, key string) error
	// Revoke deletes exactly the credential matching both user and key.
	Revoke(ctx context.Context, userID uint64, key string) error
}

// TodoStore is the persistence contract for todos. Every method is scoped
// to an owner; rows belonging to anyone else behave as if they do not exist.
type TodoStore interface {
	List(ctx context.Context, ownerID uint64) ([]Todo, error)
	Get(ctx context.Context, ownerID uint64, id string) (Todo, error)
	Create(ctx context.Context, ownerID uint64, name string, description *string) (Todo, error)
	Update(ctx context.Context, ownerID uint64, id string, patch TodoPatch) (Todo, error)
	Delete(ctx context.Context, ownerID uint64, id string) error
}
