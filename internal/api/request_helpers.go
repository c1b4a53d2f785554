package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/domain"
)

// getIdentity extracts the caller's identity from the request context.
// The identity is placed there by the identity middleware; a missing one is
// a routing mistake, surfaced as 401 rather than a panic.
func getIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := shared.GetIdentity(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return domain.Identity{}, false
	}
	return identity, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, paramName))
}
