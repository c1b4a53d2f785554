package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dhbtk/webtarot/internal/domain"
)

// Common request/response structures. Field names mirror what the web client
// sends and expects: camelCase throughout.

// CreateReadingRequest defines the payload for the create-reading endpoint.
// Cards is the number of cards the server should draw.
type CreateReadingRequest struct {
	Question string         `json:"question" validate:"required"`
	Cards    int            `json:"cards"    validate:"required,gt=0,lte=13"`
	Context  string         `json:"context"`
	Backend  domain.Backend `json:"backend"`
}

// CreateReadingResponse echoes the drawn cards back to the client along with
// the id it should poll or subscribe with.
type CreateReadingResponse struct {
	ShuffledTimes    int           `json:"shuffledTimes"`
	Cards            []domain.Card `json:"cards"`
	InterpretationID string        `json:"interpretationId"`
}

// CreateInterpretationRequest defines the payload for requesting an
// interpretation of cards the client already holds (drawn locally).
type CreateInterpretationRequest struct {
	Question string         `json:"question" validate:"required"`
	Cards    []domain.Card  `json:"cards"    validate:"required,min=1,max=13"`
	Context  string         `json:"context"`
	Backend  domain.Backend `json:"backend"`
}

// CreateInterpretationResponse carries the id of the stored reading.
type CreateInterpretationResponse struct {
	InterpretationID uuid.UUID `json:"interpretationId"`
}

// GetInterpretationResult is the client-visible state of an interpretation.
// Done is false while the language model call is in flight; a failed
// interpretation is done with a populated Error. An unknown id yields
// done=false with a localized not-found Error and no reading.
type GetInterpretationResult struct {
	Done                 bool            `json:"done"`
	Error                string          `json:"error"`
	Interpretation       string          `json:"interpretation"`
	Reading              *domain.Reading `json:"reading,omitempty"`
	InterpretationDoneAt *time.Time      `json:"interpretationDoneAt,omitempty"`
}

// NewGetInterpretationResult converts a stored interpretation to its
// client-visible shape.
func NewGetInterpretationResult(interp *domain.Interpretation) GetInterpretationResult {
	reading := interp.Reading
	switch interp.Status {
	case domain.InterpretationDone:
		return GetInterpretationResult{
			Done:                 true,
			Interpretation:       interp.Text,
			Reading:              &reading,
			InterpretationDoneAt: interp.CompletedAt,
		}
	case domain.InterpretationFailed:
		return GetInterpretationResult{
			Done:    true,
			Error:   interp.Error,
			Reading: &reading,
		}
	default:
		return GetInterpretationResult{
			Done:    false,
			Reading: &reading,
		}
	}
}

// RegisterRequest defines the payload for the sign-up endpoint.
type RegisterRequest struct {
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8,max=72"`
	Name            string `json:"name"`
	SelfDescription string `json:"selfDescription"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// UpdateUserRequest defines the payload for the profile update endpoint.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	Email           *string `json:"email"           validate:"omitempty,email"`
	Name            *string `json:"name"`
	SelfDescription *string `json:"selfDescription"`
	Password        *string `json:"password"        validate:"omitempty,min=8,max=72"`
}

// UserResponse is the client-visible profile.
type UserResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	SelfDescription string    `json:"selfDescription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewUserResponse converts a user to its client-visible profile.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		SelfDescription: user.SelfDescription,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// AuthResponse defines the successful response for sign-up and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}
