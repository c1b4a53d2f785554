package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
)

// RegisterRequest carries the input for creating an account. VisitorID is
// the anonymous id the client was already using; the account keeps it so
// earlier readings stay in the new user's history.
type RegisterRequest struct {
	VisitorID       uuid.UUID
	Email           string
	Password        string
	Name            string
	SelfDescription string
}

// ProfileUpdate carries a partial profile edit. Nil fields are left as they
// are.
type ProfileUpdate struct {
	Email           *string
	Name            *string
	SelfDescription *string
	Password        *string
}

// UserService provides account registration, login and profile operations.
type UserService interface {
	// Register creates an account under the visitor's current id and issues
	// a token for it. Returns ErrEmailTaken if the email is registered and
	// ErrAccountExists if the visitor id already belongs to an account.
	Register(ctx context.Context, req RegisterRequest) (*domain.User, string, error)

	// Login verifies the credentials and issues a token. When visitorID
	// differs from the account id, the visitor's anonymous readings are
	// moved to the account before the token is issued; a failed move fails
	// the login. Returns ErrInvalidCredentials when the pair does not match.
	Login(ctx context.Context, email, password string, visitorID uuid.UUID) (*domain.User, string, error)

	// GetProfile retrieves the user's profile.
	// Returns ErrUserNotFound if no account exists for the id.
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile applies a partial edit to the user's profile.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*domain.User, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	users    store.UserStore
	readings store.ReadingStore
	jwt      auth.JWTService
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

var _ UserService = (*userServiceImpl)(nil)

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	users store.UserStore,
	readings store.ReadingStore,
	jwtService auth.JWTService,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "users store cannot be nil"}
	}
	if readings == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "readings store cannot be nil"}
	}
	if jwtService == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "jwtService cannot be nil"}
	}
	if hasher == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "hasher cannot be nil"}
	}
	if verifier == nil {
		return nil, &UserServiceError{Operation: "create_service", Message: "verifier cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:    users,
		readings: readings,
		jwt:      jwtService,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger.With("component", "user_service"),
	}, nil
}

// Register creates the account under the visitor id. No reading reassignment
// is needed: the readings already belong to the id the account keeps.
func (s *userServiceImpl) Register(ctx context.Context, req RegisterRequest) (*domain.User, string, error) {
	id := req.VisitorID
	if id == uuid.Nil {
		id = uuid.New()
	}

	user, err := domain.NewUser(id, req.Email, req.Password, req.Name, req.SelfDescription)
	if err != nil {
		return nil, "", NewUserServiceError("register", "invalid registration data", err)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err, "user_id", id)
		return nil, "", NewUserServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn("failed to create user",
			"error", err,
			"user_id", id)
		return nil, "", NewUserServiceError("register", "failed to create user", err)
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		// The account exists but the client holds no token; they can still
		// log in with the credentials they just chose.
		s.logger.Error("failed to issue token after registration",
			"error", err,
			"user_id", user.ID)
		return nil, "", NewUserServiceError("register", "failed to issue token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials, folds the visitor's anonymous readings into
// the account, and issues a token.
func (s *userServiceImpl) Login(
	ctx context.Context,
	email, password string,
	visitorID uuid.UUID,
) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, "", NewUserServiceError("login", "failed to look up user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login password mismatch", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	if visitorID != uuid.Nil && visitorID != user.ID {
		if err := s.readings.ReassignOwner(ctx, visitorID, user.ID); err != nil {
			s.logger.Error("failed to move anonymous readings on login",
				"error", err,
				"visitor_id", visitorID,
				"user_id", user.ID)
			return nil, "", NewUserServiceError("login", "failed to move anonymous readings", err)
		}
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token on login", "error", err, "user_id", user.ID)
		return nil, "", NewUserServiceError("login", "failed to issue token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// GetProfile retrieves the user's profile.
func (s *userServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user", "error", err, "user_id", id)
		return nil, NewUserServiceError("get_profile", "failed to retrieve user", err)
	}
	return user, nil
}

// UpdateProfile applies the provided fields, re-validates, and re-hashes the
// password when a new one is supplied.
func (s *userServiceImpl) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	update ProfileUpdate,
) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to retrieve user for update", "error", err, "user_id", id)
		return nil, NewUserServiceError("update_profile", "failed to retrieve user", err)
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.SelfDescription != nil {
		user.SelfDescription = *update.SelfDescription
	}
	if update.Password != nil {
		user.Password = *update.Password
	}

	if err := user.Validate(); err != nil {
		return nil, NewUserServiceError("update_profile", "invalid profile data", err)
	}

	user.HashedPassword = ""
	if update.Password != nil {
		hashed, err := s.hasher.Hash(*update.Password)
		if err != nil {
			s.logger.Error("failed to hash new password", "error", err, "user_id", id)
			return nil, NewUserServiceError("update_profile", "failed to hash password", err)
		}
		user.HashedPassword = hashed
	}
	user.Password = ""
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to update user", "error", err, "user_id", id)
		return nil, NewUserServiceError("update_profile", "failed to update user", err)
	}

	s.logger.Info("user profile updated", "user_id", id)
	return user, nil
}
