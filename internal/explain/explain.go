// Package explain defines the interface for turning a tarot spread into an
// interpretation via a language model, and the dispatcher that routes a
// request to the backend the querent picked.
package explain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/i18n"
)

// Request carries everything a backend needs to interpret a spread. Context,
// UserName and SelfDescription are optional; empty means absent. Locale
// controls both the language of the produced text and the card names woven
// into the prompt.
type Request struct {
	Question        string
	Context         string
	Cards           []domain.Card
	UserName        string
	SelfDescription string
	Backend         domain.Backend
	Locale          i18n.Locale
}

// Explainer produces the interpretation text for a spread.
// Implementations must honor context cancellation.
type Explainer interface {
	Explain(ctx context.Context, req Request) (string, error)
}

// Dispatcher routes requests to the backend named in the request.
type Dispatcher struct {
	backends map[domain.Backend]Explainer
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given backends. If log is nil,
// a default logger will be used.
func NewDispatcher(backends map[domain.Backend]Explainer, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		backends: backends,
		logger:   log.With(slog.String("component", "explain_dispatcher")),
	}
}

// Ensure Dispatcher implements Explainer
var _ Explainer = (*Dispatcher)(nil)

// Explain implements Explainer by delegating to the requested backend.
// A request naming no backend goes to ChatGPT.
func (d *Dispatcher) Explain(ctx context.Context, req Request) (string, error) {
	backend := req.Backend
	if backend == "" {
		backend = domain.BackendChatGPT
	}

	explainer, ok := d.backends[backend]
	if !ok {
		d.logger.Warn("no explainer registered for backend",
			slog.String("backend", string(backend)))
		return "", fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}

	return explainer.Explain(ctx, req)
}
