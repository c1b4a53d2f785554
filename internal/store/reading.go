package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
)

// ReadingStore defines the interface for reading/interpretation persistence.
// A reading and its interpretation state are stored as a single row, so the
// unit of persistence is the Interpretation aggregate.
type ReadingStore interface {
	// Insert saves a new interpretation (and its reading) to the store.
	// Returns ErrInvalidEntity wrapping a validation error if the data is
	// invalid, or ErrDuplicate if the id already exists.
	Insert(ctx context.Context, interp *domain.Interpretation) error

	// UpdateResult persists the interpretation outcome columns (status,
	// text, error, completion time) and nothing else, so a concurrent
	// ownership change is never overwritten by a finishing task.
	// Returns ErrReadingNotFound if the row does not exist or was deleted.
	UpdateResult(ctx context.Context, interp *domain.Interpretation) error

	// AssignOwner hands the reading to ownerID if and only if it is still
	// unowned. A reading that got an owner in the meantime is left alone;
	// the first writer wins and later calls are no-ops, not errors.
	AssignOwner(ctx context.Context, id, ownerID uuid.UUID) error

	// GetByID retrieves an interpretation by its reading id.
	// Soft-deleted rows are invisible.
	// Returns ErrReadingNotFound if the reading does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Interpretation, error)

	// FindByOwner retrieves the owner's interpretations, newest first.
	// When before is non-nil only readings created strictly earlier are
	// returned. Returns at most limit rows; an empty slice if none match.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, before *time.Time, limit int) ([]*domain.Interpretation, error)

	// FindPending retrieves every non-deleted interpretation still pending,
	// oldest first. Used to resume work after a restart.
	FindPending(ctx context.Context) ([]*domain.Interpretation, error)

	// ListAll retrieves every non-deleted interpretation regardless of owner.
	ListAll(ctx context.Context) ([]*domain.Interpretation, error)

	// ReassignOwner moves every reading owned by fromID to toID.
	ReassignOwner(ctx context.Context, fromID, toID uuid.UUID) error

	// SoftDelete marks the reading deleted if and only if ownerID owns it.
	// Returns ErrReadingNotFound when no visible row matched, including the
	// case where the reading exists but belongs to someone else.
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a new ReadingStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ReadingStore

	// DB returns the underlying database connection for transaction management.
	DB() *sql.DB
}
