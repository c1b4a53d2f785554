package api

import (
	"net/http"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/platform/logger"
	"github.com/dhbtk/webtarot/internal/service"
)

// UserHandler handles account and authentication API requests.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register handles POST /api/v1/user. The new account claims the caller's
// anonymous id, which keeps their earlier readings. Callers already logged
// in cannot register again.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	if !identity.Anonymous() {
		shared.RespondWithError(w, r, http.StatusForbidden, "Already logged in")
		return
	}

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, token, err := h.users.Register(r.Context(), service.RegisterRequest{
		VisitorID:       identity.ID,
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		SelfDescription: req.SelfDescription,
	})
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		User:  NewUserResponse(user),
		Token: token,
	})
}

// Login handles POST /api/v1/login. The caller's anonymous readings are
// folded into the account before the token is returned.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	if !identity.Anonymous() {
		shared.RespondWithError(w, r, http.StatusForbidden, "Already logged in")
		return
	}

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password, identity.ID)
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:  NewUserResponse(user),
		Token: token,
	})
}

// GetUser handles GET /api/v1/user.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	if identity.Anonymous() {
		shared.RespondWithError(w, r, http.StatusForbidden, "Log in first")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(identity.User))
}

// UpdateUser handles PATCH /api/v1/user. Absent fields are left unchanged.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentity(w, r)
	if !ok {
		return
	}
	if identity.Anonymous() {
		shared.RespondWithError(w, r, http.StatusForbidden, "Log in first")
		return
	}

	var req UpdateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity.ID, service.ProfileUpdate{
		Email:           req.Email,
		Name:            req.Name,
		SelfDescription: req.SelfDescription,
		Password:        req.Password,
	})
	if err != nil {
		h.respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

func (h *UserHandler) respondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status >= http.StatusInternalServerError {
		log := logger.FromContextOrDefault(r.Context(), nil)
		log.Error("user request failed",
			"error", err,
			"path", r.URL.Path,
			"method", r.Method)
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}
