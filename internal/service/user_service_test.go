package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
)

func newTestUserService(
	t *testing.T,
	users *MockUserStore,
	readings *MockReadingStore,
) UserService {
	t.Helper()
	verifier := auth.NewBcryptVerifier(bcrypt.MinCost)
	svc, err := NewUserService(
		users,
		readings,
		&stubJWTService{token: "test-token"},
		verifier,
		verifier,
		slog.Default(),
	)
	require.NoError(t, err)
	return svc
}

func storedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.New(), "querent@example.com", password, "Ana", "curious")
	require.NoError(t, err)
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user.HashedPassword = string(hashed)
	user.Password = ""
	return user
}

func TestUserService_Register(t *testing.T) {
	t.Run("keeps the visitor id and hashes the password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		visitorID := uuid.New()
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == visitorID &&
				u.Password == "" &&
				u.HashedPassword != "" &&
				bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("opensesame")) == nil
		})).Return(nil)

		user, token, err := svc.Register(context.Background(), RegisterRequest{
			VisitorID: visitorID,
			Email:     "querent@example.com",
			Password:  "opensesame",
			Name:      "Ana",
		})

		require.NoError(t, err)
		assert.Equal(t, visitorID, user.ID)
		assert.Equal(t, "test-token", token)
		users.AssertExpectations(t)
	})

	t.Run("generates an id when the visitor has none", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID != uuid.Nil
		})).Return(nil)

		user, _, err := svc.Register(context.Background(), RegisterRequest{
			Email:    "querent@example.com",
			Password: "opensesame",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
	})

	t.Run("taken email", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		users.On("Create", mock.Anything, mock.Anything).Return(store.ErrEmailExists)

		_, _, err := svc.Register(context.Background(), RegisterRequest{
			VisitorID: uuid.New(),
			Email:     "querent@example.com",
			Password:  "opensesame",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("already claimed visitor id", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		users.On("Create", mock.Anything, mock.Anything).Return(store.ErrUserIDExists)

		_, _, err := svc.Register(context.Background(), RegisterRequest{
			VisitorID: uuid.New(),
			Email:     "querent@example.com",
			Password:  "opensesame",
		})
		assert.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		_, _, err := svc.Register(context.Background(), RegisterRequest{
			VisitorID: uuid.New(),
			Email:     "querent@example.com",
			Password:  "short",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_Login(t *testing.T) {
	t.Run("issues a token and moves anonymous readings", func(t *testing.T) {
		users := &MockUserStore{}
		readings := NewMockReadingStore()
		svc := newTestUserService(t, users, readings)

		user := storedUser(t, "opensesame")
		visitorID := uuid.New()

		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		readings.On("ReassignOwner", mock.Anything, visitorID, user.ID).Return(nil)

		got, token, err := svc.Login(context.Background(), user.Email, "opensesame", visitorID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "test-token", token)
		readings.AssertExpectations(t)
	})

	t.Run("skips the move when the visitor already is the account", func(t *testing.T) {
		users := &MockUserStore{}
		readings := NewMockReadingStore()
		svc := newTestUserService(t, users, readings)

		user := storedUser(t, "opensesame")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		_, _, err := svc.Login(context.Background(), user.Email, "opensesame", user.ID)
		require.NoError(t, err)
		readings.AssertNotCalled(t, "ReassignOwner", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails when the move fails", func(t *testing.T) {
		users := &MockUserStore{}
		readings := NewMockReadingStore()
		svc := newTestUserService(t, users, readings)

		user := storedUser(t, "opensesame")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		readings.On("ReassignOwner", mock.Anything, mock.Anything, user.ID).
			Return(errors.New("connection lost"))

		_, _, err := svc.Login(context.Background(), user.Email, "opensesame", uuid.New())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		user := storedUser(t, "opensesame")
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		_, _, err := svc.Login(context.Background(), user.Email, "wrong-guess", uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		users.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, store.ErrUserNotFound)

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever1", uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_GetProfile(t *testing.T) {
	users := &MockUserStore{}
	svc := newTestUserService(t, users, NewMockReadingStore())

	id := uuid.New()
	users.On("GetByID", mock.Anything, id).Return(nil, store.ErrUserNotFound)

	_, err := svc.GetProfile(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Run("applies only the provided fields", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		user := storedUser(t, "opensesame")
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			// No new password means no new hash is written.
			return u.Name == "Beatriz" && u.Email == "querent@example.com" && u.HashedPassword == ""
		})).Return(nil)

		name := "Beatriz"
		got, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Beatriz", got.Name)
		users.AssertExpectations(t)
	})

	t.Run("rehashes a new password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		user := storedUser(t, "opensesame")
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Password == "" &&
				bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte("newsecret1")) == nil
		})).Return(nil)

		password := "newsecret1"
		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Password: &password})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		users := &MockUserStore{}
		svc := newTestUserService(t, users, NewMockReadingStore())

		user := storedUser(t, "opensesame")
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		email := "not-an-email"
		_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Email: &email})
		require.Error(t, err)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
