package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/platform/logger"
	"github.com/dhbtk/webtarot/internal/store"
)

// readingColumns is the column list shared by every SELECT on readings.
const readingColumns = `id, created_at, question, context, cards, shuffled_times,
	user_id, user_name, user_self_description, backend,
	interpretation_status, interpretation_text, interpretation_error,
	interpretation_done_at`

// PostgresReadingStore implements the store.ReadingStore interface
// using a PostgreSQL database as the storage backend. A reading and its
// interpretation state live in a single row of the readings table; the
// drawn cards are stored as a JSONB document.
type PostgresReadingStore struct {
	db     store.DBTX
	conn   *sql.DB
	logger *slog.Logger
}

// NewPostgresReadingStore creates a new PostgreSQL implementation of the
// ReadingStore interface. If log is nil, a default logger will be used.
func NewPostgresReadingStore(conn *sql.DB, log *slog.Logger) *PostgresReadingStore {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresReadingStore{
		db:     conn,
		conn:   conn,
		logger: log.With(slog.String("component", "reading_store")),
	}
}

// Ensure PostgresReadingStore implements store.ReadingStore interface
var _ store.ReadingStore = (*PostgresReadingStore)(nil)

// WithTx implements store.ReadingStore.WithTx
func (s *PostgresReadingStore) WithTx(tx *sql.Tx) store.ReadingStore {
	return &PostgresReadingStore{
		db:     tx,
		conn:   s.conn,
		logger: s.logger,
	}
}

// DB implements store.ReadingStore.DB
func (s *PostgresReadingStore) DB() *sql.DB {
	return s.conn
}

// Insert implements store.ReadingStore.Insert
func (s *PostgresReadingStore) Insert(ctx context.Context, interp *domain.Interpretation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	reading := &interp.Reading

	if reading.Question == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyQuestion)
	}

	cards, err := json.Marshal(reading.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}

	query := `
		INSERT INTO readings (id, created_at, question, context, cards, shuffled_times,
			user_id, user_name, user_self_description, backend,
			interpretation_status, interpretation_text, interpretation_error,
			interpretation_done_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		reading.ID,
		reading.CreatedAt,
		reading.Question,
		reading.Context,
		cards,
		reading.ShuffledTimes,
		nullableUUID(reading.UserID),
		reading.UserName,
		reading.UserSelfDescription,
		string(reading.Backend),
		string(interp.Status),
		interp.Text,
		interp.Error,
		nullableTime(interp.CompletedAt),
	)
	if err != nil {
		log.Error("failed to insert reading",
			slog.String("error", err.Error()),
			slog.String("reading_id", reading.ID.String()))
		return MapError(err)
	}

	log.Debug("reading inserted",
		slog.String("reading_id", reading.ID.String()),
		slog.String("status", string(interp.Status)))
	return nil
}

// UpdateResult implements store.ReadingStore.UpdateResult. Only the
// interpretation outcome columns are written; the reading itself, including
// user_id, is left untouched so this cannot revert a concurrent assignment.
func (s *PostgresReadingStore) UpdateResult(ctx context.Context, interp *domain.Interpretation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	readingID := interp.Reading.ID

	query := `
		UPDATE readings
		SET interpretation_status = $2, interpretation_text = $3,
			interpretation_error = $4, interpretation_done_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		readingID,
		string(interp.Status),
		interp.Text,
		interp.Error,
		nullableTime(interp.CompletedAt),
	)
	if err != nil {
		log.Error("failed to update interpretation result",
			slog.String("error", err.Error()),
			slog.String("reading_id", readingID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "reading"); err != nil {
		return store.ErrReadingNotFound
	}

	log.Debug("interpretation result updated",
		slog.String("reading_id", readingID.String()),
		slog.String("status", string(interp.Status)))
	return nil
}

// AssignOwner implements store.ReadingStore.AssignOwner. The user_id guard
// makes assignment first-writer-wins; zero rows affected means the reading
// is already owned or gone, which the caller treats as settled.
func (s *PostgresReadingStore) AssignOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE readings SET user_id = $2 WHERE id = $1 AND user_id IS NULL AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		log.Error("failed to assign reading owner",
			slog.String("error", err.Error()),
			slog.String("reading_id", id.String()))
		return MapError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		log.Debug("reading already owned, assignment skipped",
			slog.String("reading_id", id.String()))
	}
	return nil
}

// GetByID implements store.ReadingStore.GetByID
func (s *PostgresReadingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Interpretation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + readingColumns + ` FROM readings WHERE id = $1 AND deleted_at IS NULL`

	interp, err := scanInterpretation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reading not found", slog.String("reading_id", id.String()))
			return nil, store.ErrReadingNotFound
		}
		log.Error("failed to get reading by ID",
			slog.String("error", err.Error()),
			slog.String("reading_id", id.String()))
		return nil, MapError(err)
	}

	return interp, nil
}

// FindByOwner implements store.ReadingStore.FindByOwner
func (s *PostgresReadingStore) FindByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	before *time.Time,
	limit int,
) ([]*domain.Interpretation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE user_id = $1 AND deleted_at IS NULL AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, ownerID, nullableTime(before), limit)
	if err != nil {
		log.Error("failed to list readings by owner",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectInterpretations(rows)
}

// FindPending implements store.ReadingStore.FindPending
func (s *PostgresReadingStore) FindPending(ctx context.Context) ([]*domain.Interpretation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE interpretation_status = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, string(domain.InterpretationPending))
	if err != nil {
		log.Error("failed to list pending readings",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectInterpretations(rows)
}

// ListAll implements store.ReadingStore.ListAll
func (s *PostgresReadingStore) ListAll(ctx context.Context) ([]*domain.Interpretation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list readings", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectInterpretations(rows)
}

// ReassignOwner implements store.ReadingStore.ReassignOwner
func (s *PostgresReadingStore) ReassignOwner(ctx context.Context, fromID, toID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE readings SET user_id = $2 WHERE user_id = $1 AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, fromID, toID)
	if err != nil {
		log.Error("failed to reassign readings",
			slog.String("error", err.Error()),
			slog.String("from_user_id", fromID.String()),
			slog.String("to_user_id", toID.String()))
		return MapError(err)
	}

	// Zero reassigned rows is fine: the visitor may never have drawn cards.
	if moved, err := result.RowsAffected(); err == nil && moved > 0 {
		log.Info("readings reassigned",
			slog.String("from_user_id", fromID.String()),
			slog.String("to_user_id", toID.String()),
			slog.Int64("count", moved))
	}
	return nil
}

// SoftDelete implements store.ReadingStore.SoftDelete
func (s *PostgresReadingStore) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE readings
		SET deleted_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		log.Error("failed to soft delete reading",
			slog.String("error", err.Error()),
			slog.String("reading_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "reading"); err != nil {
		return store.ErrReadingNotFound
	}

	log.Info("reading soft deleted",
		slog.String("reading_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanInterpretation reads one readings row into a domain aggregate.
func scanInterpretation(row rowScanner) (*domain.Interpretation, error) {
	var (
		interp  domain.Interpretation
		cards   []byte
		userID  uuid.NullUUID
		backend sql.NullString
		status  string
		doneAt  sql.NullTime
	)

	err := row.Scan(
		&interp.Reading.ID,
		&interp.Reading.CreatedAt,
		&interp.Reading.Question,
		&interp.Reading.Context,
		&cards,
		&interp.Reading.ShuffledTimes,
		&userID,
		&interp.Reading.UserName,
		&interp.Reading.UserSelfDescription,
		&backend,
		&status,
		&interp.Text,
		&interp.Error,
		&doneAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cards, &interp.Reading.Cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	if userID.Valid {
		id := userID.UUID
		interp.Reading.UserID = &id
	}
	if backend.Valid {
		interp.Reading.Backend = domain.Backend(backend.String)
	}
	interp.Status = domain.InterpretationStatus(status)
	if doneAt.Valid {
		at := doneAt.Time.UTC()
		interp.CompletedAt = &at
	}

	return &interp, nil
}

// collectInterpretations drains a row set into aggregates.
func collectInterpretations(rows *sql.Rows) ([]*domain.Interpretation, error) {
	interps := make([]*domain.Interpretation, 0)
	for rows.Next() {
		interp, err := scanInterpretation(rows)
		if err != nil {
			return nil, err
		}
		interps = append(interps, interp)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return interps, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
