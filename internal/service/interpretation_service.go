package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/events"
	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/i18n"
	"github.com/dhbtk/webtarot/internal/store"
	"github.com/dhbtk/webtarot/internal/task"
)

// History page limits. Requests outside the range are clamped rather than
// rejected.
const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 200
)

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// ReadingRequest carries the querent's input for a new reading. When Cards
// is non-empty the client drew them itself and CardCount is ignored;
// otherwise the server shuffles and draws CardCount cards.
type ReadingRequest struct {
	Question  string
	Context   string
	CardCount int
	Cards     []domain.Card
	Backend   domain.Backend
	Identity  domain.Identity
	Locale    i18n.Locale
}

// InterpretationService provides reading and interpretation operations.
type InterpretationService interface {
	// RequestInterpretation draws a fresh reading for the request, persists
	// it as pending, and enqueues the language model call. The returned
	// interpretation is the pending row as stored.
	RequestInterpretation(ctx context.Context, req ReadingRequest) (*domain.Interpretation, error)

	// GetInterpretation retrieves an interpretation by reading id. An
	// unowned reading is assigned to the caller as a side effect, so the
	// first identified visitor to fetch it keeps it in their history.
	// Returns ErrInterpretationNotFound if no such reading exists.
	GetInterpretation(ctx context.Context, id uuid.UUID, identity domain.Identity) (*domain.Interpretation, error)

	// History retrieves the owner's interpretations newest first. When
	// before is non-nil only readings created strictly earlier are returned.
	// The limit is clamped to [1, 200]; zero or negative means the default
	// page size.
	History(ctx context.Context, ownerID uuid.UUID, before *time.Time, limit int) ([]*domain.Interpretation, error)

	// Delete soft-deletes a reading owned by ownerID.
	// Returns ErrInterpretationNotFound when the reading does not exist or
	// belongs to someone else.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// Stats aggregates card frequencies over every stored reading.
	Stats(ctx context.Context) (*domain.Stats, error)

	// RecoverPending re-enqueues every interpretation still pending,
	// typically after a restart. Returns the number of tasks enqueued.
	RecoverPending(ctx context.Context) (int, error)
}

// interpretationServiceImpl implements the InterpretationService interface
type interpretationServiceImpl struct {
	readings   store.ReadingStore
	taskRunner TaskRunner
	explainer  explain.Explainer
	publisher  events.Publisher
	logger     *slog.Logger
}

var _ InterpretationService = (*interpretationServiceImpl)(nil)

// NewInterpretationService creates a new InterpretationService.
// It returns an error if any of the required dependencies are nil.
func NewInterpretationService(
	readings store.ReadingStore,
	taskRunner TaskRunner,
	explainer explain.Explainer,
	publisher events.Publisher,
	logger *slog.Logger,
) (InterpretationService, error) {
	if readings == nil {
		return nil, &InterpretationServiceError{
			Operation: "create_service",
			Message:   "readings store cannot be nil",
		}
	}
	if taskRunner == nil {
		return nil, &InterpretationServiceError{
			Operation: "create_service",
			Message:   "taskRunner cannot be nil",
		}
	}
	if explainer == nil {
		return nil, &InterpretationServiceError{
			Operation: "create_service",
			Message:   "explainer cannot be nil",
		}
	}
	if publisher == nil {
		return nil, &InterpretationServiceError{
			Operation: "create_service",
			Message:   "publisher cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &interpretationServiceImpl{
		readings:   readings,
		taskRunner: taskRunner,
		explainer:  explainer,
		publisher:  publisher,
		logger:     logger.With("component", "interpretation_service"),
	}, nil
}

// RequestInterpretation draws the cards, persists the pending interpretation
// and hands the language model call to the background runner. The row is
// committed before the task is enqueued so a crash in between only delays
// the interpretation: pending rows are re-enqueued on startup.
func (s *interpretationServiceImpl) RequestInterpretation(
	ctx context.Context,
	req ReadingRequest,
) (*domain.Interpretation, error) {
	var reading *domain.Reading
	var err error
	if len(req.Cards) > 0 {
		reading, err = domain.NewReadingFromCards(req.Question, req.Context, req.Cards, req.Backend, req.Identity)
	} else {
		reading, err = domain.NewReading(req.Question, req.Context, req.CardCount, req.Backend, req.Identity)
	}
	if err != nil {
		s.logger.Error("failed to create reading",
			"error", err,
			"user_id", req.Identity.ID)
		return nil, NewInterpretationServiceError("request_interpretation", "failed to create reading", err)
	}

	interp := domain.NewPendingInterpretation(*reading)

	err = store.RunInTransaction(ctx, s.readings.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.readings.WithTx(tx).Insert(ctx, interp); err != nil {
			s.logger.Error("failed to insert interpretation in transaction",
				"error", err,
				"reading_id", reading.ID,
				"user_id", req.Identity.ID)
			return NewInterpretationServiceError("request_interpretation", "failed to save reading", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reading created with pending interpretation",
		"reading_id", reading.ID,
		"backend", reading.Backend,
		"cards", len(reading.Cards))

	if err := s.enqueue(ctx, reading.ID, req.Locale); err != nil {
		// The row is already committed. The client can still poll and the
		// pending row is picked up again on the next restart.
		s.logger.Error("failed to enqueue interpretation task",
			"error", err,
			"reading_id", reading.ID)
	}

	return interp, nil
}

// GetInterpretation retrieves an interpretation, assigning unowned readings
// to whoever fetched them first. Holding the reading id is what grants read
// access, so no ownership check is made here.
func (s *interpretationServiceImpl) GetInterpretation(
	ctx context.Context,
	id uuid.UUID,
	identity domain.Identity,
) (*domain.Interpretation, error) {
	interp, err := s.readings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrReadingNotFound) {
			return nil, ErrInterpretationNotFound
		}
		s.logger.Error("failed to retrieve interpretation",
			"error", err,
			"reading_id", id)
		return nil, NewInterpretationServiceError("get_interpretation", "failed to retrieve interpretation", err)
	}

	if interp.Reading.Unowned() && identity.ID != uuid.Nil {
		// Assignment is best effort and first-writer-wins: the store only
		// writes user_id while the row is still unowned, so concurrent
		// fetches cannot overwrite each other. Losing the race never hides
		// the interpretation.
		if err := s.readings.AssignOwner(ctx, id, identity.ID); err != nil {
			s.logger.Warn("failed to assign reading to user",
				"error", err,
				"reading_id", id,
				"user_id", identity.ID)
		} else {
			interp.AssignUser(identity.ID)
			s.logger.Debug("assigned unowned reading",
				"reading_id", id,
				"user_id", identity.ID)
		}
	}

	return interp, nil
}

// History retrieves a page of the owner's interpretations.
func (s *interpretationServiceImpl) History(
	ctx context.Context,
	ownerID uuid.UUID,
	before *time.Time,
	limit int,
) ([]*domain.Interpretation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	interps, err := s.readings.FindByOwner(ctx, ownerID, before, limit)
	if err != nil {
		s.logger.Error("failed to retrieve history",
			"error", err,
			"user_id", ownerID)
		return nil, NewInterpretationServiceError("history", "failed to retrieve history", err)
	}
	return interps, nil
}

// Delete soft-deletes an owned reading.
func (s *interpretationServiceImpl) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := s.readings.SoftDelete(ctx, id, ownerID); err != nil {
		if errors.Is(err, store.ErrReadingNotFound) {
			return ErrInterpretationNotFound
		}
		s.logger.Error("failed to delete reading",
			"error", err,
			"reading_id", id,
			"user_id", ownerID)
		return NewInterpretationServiceError("delete", "failed to delete reading", err)
	}

	s.logger.Info("reading deleted", "reading_id", id, "user_id", ownerID)
	return nil
}

// Stats aggregates card frequencies over all stored readings.
func (s *interpretationServiceImpl) Stats(ctx context.Context) (*domain.Stats, error) {
	interps, err := s.readings.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list readings for stats", "error", err)
		return nil, NewInterpretationServiceError("stats", "failed to list readings", err)
	}

	readings := make([]domain.Reading, 0, len(interps))
	for _, interp := range interps {
		readings = append(readings, interp.Reading)
	}

	stats := domain.CalculateStats(readings)
	return &stats, nil
}

// RecoverPending re-enqueues interpretations that never reached a terminal
// state. The request-time locale is gone by now, so recovered tasks fall
// back to the default locale.
func (s *interpretationServiceImpl) RecoverPending(ctx context.Context) (int, error) {
	pending, err := s.readings.FindPending(ctx)
	if err != nil {
		s.logger.Error("failed to find pending interpretations", "error", err)
		return 0, NewInterpretationServiceError("recover_pending", "failed to find pending interpretations", err)
	}

	recovered := 0
	for _, interp := range pending {
		if err := s.enqueue(ctx, interp.Reading.ID, i18n.DefaultLocale); err != nil {
			s.logger.Error("failed to re-enqueue pending interpretation",
				"error", err,
				"reading_id", interp.Reading.ID)
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Info("recovered pending interpretations", "count", recovered)
	}
	return recovered, nil
}

func (s *interpretationServiceImpl) enqueue(ctx context.Context, readingID uuid.UUID, locale i18n.Locale) error {
	t, err := task.NewInterpretationTask(readingID, locale, s.readings, s.explainer, s.publisher, s.logger)
	if err != nil {
		return err
	}
	return s.taskRunner.Submit(ctx, t)
}
