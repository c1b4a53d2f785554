package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dhbtk/webtarot/internal/api/shared"
	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/service"
)

// MockInterpretationService is a mock implementation of
// service.InterpretationService
type MockInterpretationService struct {
	mock.Mock
}

var _ service.InterpretationService = (*MockInterpretationService)(nil)

func (m *MockInterpretationService) RequestInterpretation(
	ctx context.Context,
	req service.ReadingRequest,
) (*domain.Interpretation, error) {
	args := m.Called(ctx, req)
	interp, _ := args.Get(0).(*domain.Interpretation)
	return interp, args.Error(1)
}

func (m *MockInterpretationService) GetInterpretation(
	ctx context.Context,
	id uuid.UUID,
	identity domain.Identity,
) (*domain.Interpretation, error) {
	args := m.Called(ctx, id, identity)
	interp, _ := args.Get(0).(*domain.Interpretation)
	return interp, args.Error(1)
}

func (m *MockInterpretationService) History(
	ctx context.Context,
	ownerID uuid.UUID,
	before *time.Time,
	limit int,
) ([]*domain.Interpretation, error) {
	args := m.Called(ctx, ownerID, before, limit)
	interps, _ := args.Get(0).([]*domain.Interpretation)
	return interps, args.Error(1)
}

func (m *MockInterpretationService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockInterpretationService) Stats(ctx context.Context) (*domain.Stats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*domain.Stats)
	return stats, args.Error(1)
}

func (m *MockInterpretationService) RecoverPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockUserService is a mock implementation of service.UserService
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func (m *MockUserService) Register(
	ctx context.Context,
	req service.RegisterRequest,
) (*domain.User, string, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*domain.User)
	return user, args.String(1), args.Error(2)
}

func (m *MockUserService) Login(
	ctx context.Context,
	email, password string,
	visitorID uuid.UUID,
) (*domain.User, string, error) {
	args := m.Called(ctx, email, password, visitorID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.String(1), args.Error(2)
}

func (m *MockUserService) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	update service.ProfileUpdate,
) (*domain.User, error) {
	args := m.Called(ctx, id, update)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// withIdentity injects an identity into the request context, standing in
// for the identity middleware.
func withIdentity(r *http.Request, identity domain.Identity) *http.Request {
	return r.WithContext(shared.WithIdentity(r.Context(), identity))
}
