package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/i18n"
	"github.com/dhbtk/webtarot/internal/platform/logger"
	"github.com/dhbtk/webtarot/internal/service"
)

// InterpretationHandler handles reading and interpretation API requests.
type InterpretationHandler struct {
	interpretations service.InterpretationService
}

// NewInterpretationHandler creates a new InterpretationHandler with the
// given dependencies.
func NewInterpretationHandler(interpretations service.InterpretationService) *InterpretationHandler {
	return &InterpretationHandler{interpretations: interpretations}
}

// CreateReading handles POST /api/v1/reading. The server shuffles and draws;
// the response returns immediately with the pending interpretation id.
func (h *InterpretationHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	var req CreateReadingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	interp, err := h.interpretations.RequestInterpretation(r.Context(), service.ReadingRequest{
		Question:  req.Question,
		Context:   req.Context,
		CardCount: req.Cards,
		Backend:   req.Backend,
		Identity:  identity,
		Locale:    shared.GetLocale(r.Context()),
	})
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CreateReadingResponse{
		ShuffledTimes:    interp.Reading.ShuffledTimes,
		Cards:            interp.Reading.Cards,
		InterpretationID: interp.Reading.ID.String(),
	})
}

// CreateInterpretation handles POST /api/v1/interpretation, for clients that
// drew the cards themselves.
func (h *InterpretationHandler) CreateInterpretation(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	var req CreateInterpretationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	interp, err := h.interpretations.RequestInterpretation(r.Context(), service.ReadingRequest{
		Question: req.Question,
		Context:  req.Context,
		Cards:    req.Cards,
		Backend:  req.Backend,
		Identity: identity,
		Locale:   shared.GetLocale(r.Context()),
	})
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CreateInterpretationResponse{
		InterpretationID: interp.Reading.ID,
	})
}

// GetInterpretation handles GET /api/v1/interpretation/{id}. An unparseable
// or unknown id yields done=false with a localized not-found message so the
// client can stop polling.
func (h *InterpretationHandler) GetInterpretation(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	locale := shared.GetLocale(r.Context())

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithJSON(w, r, http.StatusNotFound, GetInterpretationResult{
			Error: i18n.T(locale, "interpretation.not_found"),
		})
		return
	}

	interp, err := h.interpretations.GetInterpretation(r.Context(), id, identity)
	if err != nil {
		if errors.Is(err, service.ErrInterpretationNotFound) {
			shared.RespondWithJSON(w, r, http.StatusNotFound, GetInterpretationResult{
				Error: i18n.T(locale, "interpretation.not_found"),
			})
			return
		}
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewGetInterpretationResult(interp))
}

// History handles GET /api/v1/interpretation/history. An invalid before
// timestamp is ignored rather than rejected.
func (h *InterpretationHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			before = &parsed
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	interps, err := h.interpretations.History(r.Context(), identity.ID, before, limit)
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	results := make([]GetInterpretationResult, 0, len(interps))
	for _, interp := range interps {
		results = append(results, NewGetInterpretationResult(interp))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, results)
}

// DeleteInterpretation handles DELETE /api/v1/interpretation/{id}. Deleting
// a reading that is not yours looks identical to deleting one that does not
// exist.
func (h *InterpretationHandler) DeleteInterpretation(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, GetSafeErrorMessage(service.ErrInterpretationNotFound))
		return
	}

	if err := h.interpretations.Delete(r.Context(), id, identity.ID); err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/stats.
func (h *InterpretationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.interpretations.Stats(r.Context())
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

func (h *InterpretationHandler) respondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status >= http.StatusInternalServerError {
		log := logger.FromContextOrDefault(r.Context(), nil)
		log.Error("interpretation request failed",
			"error", err,
			"path", r.URL.Path,
			"method", r.Method)
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}
