package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
)

// fakeUserStore serves a single registered user.
type fakeUserStore struct {
	user *domain.User
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.user != nil && f.user.ID == id, nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeJWTService accepts a single known token.
type fakeJWTService struct {
	token  string
	userID uuid.UUID
}

var _ auth.JWTService = (*fakeJWTService)(nil)

func (f *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if tokenString == f.token {
		return &auth.Claims{UserID: f.userID}, nil
	}
	return nil, auth.ErrInvalidToken
}

func identitySink(captured *domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.GetIdentity(r.Context())
		if ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	registered, err := domain.NewUser(uuid.New(), "querent@example.com", "opensesame", "Ana", "")
	require.NoError(t, err)
	registered.HashedPassword = "hash"

	users := &fakeUserStore{user: registered}
	jwt := &fakeJWTService{token: "valid-token", userID: registered.ID}
	mw := NewIdentityMiddleware(users, jwt)

	t.Run("anonymous visitor via X-User-UUID", func(t *testing.T) {
		var got domain.Identity
		handler := mw.Identify(identitySink(&got))

		anonID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-UUID", anonID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, anonID, got.ID)
		assert.True(t, got.Anonymous())
	})

	t.Run("anonymous id already claimed by an account", func(t *testing.T) {
		handler := mw.Identify(identitySink(&domain.Identity{}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-UUID", registered.ID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		var got domain.Identity
		handler := mw.Identify(identitySink(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, registered.ID, got.ID)
		assert.False(t, got.Anonymous())
	})

	t.Run("invalid token", func(t *testing.T) {
		handler := mw.Identify(identitySink(&domain.Identity{}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no credentials", func(t *testing.T) {
		handler := mw.Identify(identitySink(&domain.Identity{}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("websocket subprotocol carries an anonymous id", func(t *testing.T) {
		var got domain.Identity
		handler := mw.Identify(identitySink(&got))

		anonID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Sec-WebSocket-Protocol", anonID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, anonID, got.ID)
		assert.True(t, got.Anonymous())
	})

	t.Run("websocket subprotocol carries a token", func(t *testing.T) {
		var got domain.Identity
		handler := mw.Identify(identitySink(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Sec-WebSocket-Protocol", "valid-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, registered.ID, got.ID)
		assert.False(t, got.Anonymous())
	})
}
