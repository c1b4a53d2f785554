package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/events"
	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/i18n"
	"github.com/dhbtk/webtarot/internal/redact"
)

// InterpretationTaskType is the type identifier for interpretation tasks.
const InterpretationTaskType = "interpretation"

// InterpretationStore is the slice of the reading store the task needs.
// UpdateResult writes only the interpretation outcome columns, so a reading
// assigned or reassigned while the language model call was in flight keeps
// its new owner.
type InterpretationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Interpretation, error)
	UpdateResult(ctx context.Context, interp *domain.Interpretation) error
}

// InterpretationTask asks a language model to interpret one stored reading
// and records the outcome. The locale is the one negotiated when the querent
// made the request; it decides the language of both the interpretation and
// any failure message persisted for them.
type InterpretationTask struct {
	readingID uuid.UUID
	locale    i18n.Locale
	readings  InterpretationStore
	explainer explain.Explainer
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewInterpretationTask creates a task for the given reading.
func NewInterpretationTask(
	readingID uuid.UUID,
	locale i18n.Locale,
	readings InterpretationStore,
	explainer explain.Explainer,
	publisher events.Publisher,
	log *slog.Logger,
) (*InterpretationTask, error) {
	if readingID == uuid.Nil {
		return nil, errors.New("reading id cannot be empty")
	}
	if readings == nil {
		return nil, errors.New("readings store cannot be nil")
	}
	if explainer == nil {
		return nil, errors.New("explainer cannot be nil")
	}
	if publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if !locale.IsValid() {
		locale = i18n.DefaultLocale
	}

	return &InterpretationTask{
		readingID: readingID,
		locale:    locale,
		readings:  readings,
		explainer: explainer,
		publisher: publisher,
		logger:    log.With(slog.String("component", "interpretation_task")),
		now:       time.Now,
	}, nil
}

// Ensure InterpretationTask implements Task
var _ Task = (*InterpretationTask)(nil)

// ID implements Task.ID
func (t *InterpretationTask) ID() uuid.UUID {
	return t.readingID
}

// Type implements Task.Type
func (t *InterpretationTask) Type() string {
	return InterpretationTaskType
}

// Execute implements Task.Execute. It loads the stored interpretation, calls
// the language model, persists the terminal state and broadcasts it. A
// language model failure still counts as a successful task: the failure is
// recorded on the interpretation itself, localized for the querent.
func (t *InterpretationTask) Execute(ctx context.Context) error {
	log := t.logger.With(slog.String("reading_id", t.readingID.String()))

	interp, err := t.readings.GetByID(ctx, t.readingID)
	if err != nil {
		return fmt.Errorf("failed to load reading: %w", err)
	}

	// Recovery can re-enqueue a reading that already finished.
	if interp.Terminal() {
		log.Debug("interpretation already terminal, skipping",
			slog.String("status", string(interp.Status)))
		return nil
	}

	reading := interp.Reading
	req := explain.Request{
		Question:        reading.Question,
		Context:         reading.Context,
		Cards:           reading.Cards,
		UserName:        reading.UserName,
		SelfDescription: reading.UserSelfDescription,
		Backend:         reading.Backend,
		Locale:          t.locale,
	}

	start := t.now()
	text, explainErr := t.explainer.Explain(ctx, req)
	elapsed := t.now().Sub(start)

	if explainErr != nil {
		log.Error("interpretation failed",
			slog.String("error", redact.Error(explainErr)),
			slog.String("backend", string(reading.Backend)),
			slog.Int("cards", len(reading.Cards)),
			slog.Duration("elapsed", elapsed))

		if err := interp.Fail(explain.LocalizeError(t.locale, explainErr), t.now()); err != nil {
			return fmt.Errorf("failed to mark interpretation failed: %w", err)
		}
	} else {
		log.Info("interpretation completed",
			slog.String("backend", string(reading.Backend)),
			slog.Int("cards", len(reading.Cards)),
			slog.Duration("elapsed", elapsed))

		if err := interp.Complete(text, t.now()); err != nil {
			return fmt.Errorf("failed to mark interpretation done: %w", err)
		}
	}

	if err := t.readings.UpdateResult(ctx, interp); err != nil {
		return fmt.Errorf("failed to persist interpretation result: %w", err)
	}

	// Persist first, then notify: a subscriber who reacts to the
	// notification by fetching must see the terminal state.
	t.publisher.Publish(*interp)
	return nil
}
