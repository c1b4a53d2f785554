package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user keeps the id it was
	// constructed with. Returns ErrEmailExists if the email is taken and
	// ErrUserIDExists if another account already claimed the id.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByID reports whether an account with the given id exists.
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// Update saves changes to an existing user's profile. When the user has
	// a non-empty HashedPassword it is written as well.
	// Returns ErrUserNotFound if the user does not exist and ErrEmailExists
	// if the new email is taken by someone else.
	Update(ctx context.Context, user *domain.User) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
