package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/service"
)

func newUserRouter(svc service.UserService) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/v1/user", h.Register)
	r.Get("/api/v1/user", h.GetUser)
	r.Patch("/api/v1/user", h.UpdateUser)
	r.Post("/api/v1/login", h.Login)
	return r
}

func registeredUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.New(), "querent@example.com", "opensesame", "Ana", "")
	require.NoError(t, err)
	user.HashedPassword = "hash"
	user.Password = ""
	return user
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("claims the visitor id", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		visitorID := uuid.New()
		user := registeredUser(t)
		user.ID = visitorID

		svc.On("Register", mock.Anything, mock.MatchedBy(func(req service.RegisterRequest) bool {
			return req.VisitorID == visitorID && req.Email == "querent@example.com"
		})).Return(user, "issued-token", nil)

		body, _ := json.Marshal(RegisterRequest{
			Email:    "querent@example.com",
			Password: "opensesame",
			Name:     "Ana",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.AnonymousIdentity(visitorID)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, visitorID, resp.User.ID)
		assert.Equal(t, "issued-token", resp.Token)
	})

	t.Run("rejects an already registered caller", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		user := registeredUser(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.UserIdentity(user)))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("taken email maps to conflict", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		svc.On("Register", mock.Anything, mock.Anything).
			Return(nil, "", service.ErrEmailTaken)

		body, _ := json.Marshal(RegisterRequest{Email: "querent@example.com", Password: "opensesame"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.AnonymousIdentity(uuid.New())))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		visitorID := uuid.New()
		user := registeredUser(t)
		svc.On("Login", mock.Anything, "querent@example.com", "opensesame", visitorID).
			Return(user, "issued-token", nil)

		body, _ := json.Marshal(LoginRequest{Email: "querent@example.com", Password: "opensesame"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.AnonymousIdentity(visitorID)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, "issued-token", resp.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		svc.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, "", service.ErrInvalidCredentials)

		body, _ := json.Marshal(LoginRequest{Email: "querent@example.com", Password: "wrong-guess"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.AnonymousIdentity(uuid.New())))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandler_Profile(t *testing.T) {
	t.Run("get requires an account", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.AnonymousIdentity(uuid.New())))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("get returns the profile", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		user := registeredUser(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.UserIdentity(user)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.Email, resp.Email)
	})

	t.Run("patch applies a partial update", func(t *testing.T) {
		svc := &MockUserService{}
		router := newUserRouter(svc)

		user := registeredUser(t)
		updated := *user
		updated.Name = "Beatriz"
		svc.On("UpdateProfile", mock.Anything, user.ID, mock.MatchedBy(func(update service.ProfileUpdate) bool {
			return update.Name != nil && *update.Name == "Beatriz" && update.Email == nil
		})).Return(&updated, nil)

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/user", bytes.NewReader([]byte(`{"name":"Beatriz"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withIdentity(req, domain.UserIdentity(user)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Beatriz", resp.Name)
	})
}
