package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered account. Name and SelfDescription feed the
// interpretation prompt so the reading can address the querent personally.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	SelfDescription string    `json:"selfDescription"`
	Password        string    `json:"-"` // plaintext, only populated during registration/updates
	HashedPassword  string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewUser creates a User with the given identity. The id is supplied by the
// caller rather than generated: a registering visitor keeps the anonymous id
// they were already using, so their earlier readings stay reachable.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(id uuid.UUID, email, password, name, selfDescription string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:              id,
		Email:           email,
		Name:            name,
		SelfDescription: selfDescription,
		Password:        password,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		// bcrypt truncates beyond 72 bytes
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// validEmailFormat performs basic structural validation of an email address.
func validEmailFormat(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// Identity is the caller of a request: either an anonymous visitor known
// only by a client-generated UUID, or an authenticated account. User is nil
// for anonymous identities.
type Identity struct {
	ID   uuid.UUID
	User *User
}

// AnonymousIdentity returns an identity for an unregistered visitor.
func AnonymousIdentity(id uuid.UUID) Identity {
	return Identity{ID: id}
}

// UserIdentity returns an identity backed by a registered account.
func UserIdentity(user *User) Identity {
	return Identity{ID: user.ID, User: user}
}

// Anonymous reports whether the identity has no registered account.
func (i Identity) Anonymous() bool {
	return i.User == nil
}

// DisplayName returns the account name, or empty for anonymous identities.
func (i Identity) DisplayName() string {
	if i.User == nil {
		return ""
	}
	return i.User.Name
}

// SelfDescription returns the account self-description, or empty for
// anonymous identities.
func (i Identity) SelfDescription() string {
	if i.User == nil {
		return ""
	}
	return i.User.SelfDescription
}
