package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/platform/logger"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
)

// anonymousIDLength is the length of a textual UUID. A Sec-WebSocket-Protocol
// value of exactly this length is an anonymous visitor id; JWT tokens are
// longer.
const anonymousIDLength = 36

// IdentityMiddleware resolves the caller of every request to a
// domain.Identity: either an anonymous visitor carrying a self-assigned UUID
// in the X-User-UUID header, or a registered user presenting a bearer token.
// WebSocket clients cannot set those headers and tunnel the same value
// through Sec-WebSocket-Protocol instead.
type IdentityMiddleware struct {
	users store.UserStore
	jwt   auth.JWTService
}

// NewIdentityMiddleware creates a new IdentityMiddleware with the given
// dependencies.
func NewIdentityMiddleware(users store.UserStore, jwtService auth.JWTService) *IdentityMiddleware {
	return &IdentityMiddleware{
		users: users,
		jwt:   jwtService,
	}
}

// Identify resolves the caller and adds the identity to the request context,
// rejecting requests that carry neither a visitor id nor a valid token. An
// anonymous id that already belongs to a registered account is rejected: the
// client kept using its pre-signup id without logging in.
func (m *IdentityMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContextOrDefault(r.Context(), nil)

		if anonID, ok := anonymousID(r); ok {
			exists, err := m.users.ExistsByID(r.Context(), anonID)
			if err != nil {
				log.Error("failed to check visitor id", "error", err)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
				return
			}
			if exists {
				log.Warn("anonymous request with a registered account id", "user_id", anonID)
				shared.RespondWithError(w, r, http.StatusUnauthorized, "This id belongs to an account, log in instead")
				return
			}
			ctx := shared.WithIdentity(r.Context(), domain.AnonymousIdentity(anonID))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwt.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				log.Error("failed to validate token", "error", err)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}
			log.Error("failed to load user for token", "error", err, "user_id", claims.UserID)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		ctx := shared.WithIdentity(r.Context(), domain.UserIdentity(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// anonymousID extracts the visitor's self-assigned UUID, if any.
func anonymousID(r *http.Request) (uuid.UUID, bool) {
	value := r.Header.Get("X-User-UUID")
	if value == "" {
		if proto := r.Header.Get("Sec-WebSocket-Protocol"); len(proto) == anonymousIDLength {
			value = proto
		}
	}
	if value == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// bearerToken extracts a JWT from the Authorization header, or from the
// Sec-WebSocket-Protocol header for WebSocket clients.
func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return "", false
		}
		return token, true
	}
	if proto := r.Header.Get("Sec-WebSocket-Protocol"); proto != "" {
		return proto, true
	}
	return "", false
}
