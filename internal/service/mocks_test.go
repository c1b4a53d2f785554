package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
	"github.com/dhbtk/webtarot/internal/task"
)

// noopDriver is a minimal database/sql driver whose transactions always
// succeed. It lets service tests run the real transaction helper while the
// store itself is mocked.
type noopDriver struct{}

type noopConn struct{}

type noopTx struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

func (noopConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("not supported")
}
func (noopConn) Close() error              { return nil }
func (noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type noopConnector struct{}

func (noopConnector) Connect(context.Context) (driver.Conn, error) { return noopConn{}, nil }
func (noopConnector) Driver() driver.Driver                        { return noopDriver{} }

func newFakeDB() *sql.DB {
	return sql.OpenDB(noopConnector{})
}

// MockReadingStore is a mock implementation of store.ReadingStore
type MockReadingStore struct {
	mock.Mock
	db *sql.DB
}

var _ store.ReadingStore = (*MockReadingStore)(nil)

func NewMockReadingStore() *MockReadingStore {
	return &MockReadingStore{db: newFakeDB()}
}

func (m *MockReadingStore) Insert(ctx context.Context, interp *domain.Interpretation) error {
	args := m.Called(ctx, interp)
	return args.Error(0)
}

func (m *MockReadingStore) UpdateResult(ctx context.Context, interp *domain.Interpretation) error {
	args := m.Called(ctx, interp)
	return args.Error(0)
}

func (m *MockReadingStore) AssignOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockReadingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Interpretation, error) {
	args := m.Called(ctx, id)
	interp, _ := args.Get(0).(*domain.Interpretation)
	return interp, args.Error(1)
}

func (m *MockReadingStore) FindByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	before *time.Time,
	limit int,
) ([]*domain.Interpretation, error) {
	args := m.Called(ctx, ownerID, before, limit)
	interps, _ := args.Get(0).([]*domain.Interpretation)
	return interps, args.Error(1)
}

func (m *MockReadingStore) FindPending(ctx context.Context) ([]*domain.Interpretation, error) {
	args := m.Called(ctx)
	interps, _ := args.Get(0).([]*domain.Interpretation)
	return interps, args.Error(1)
}

func (m *MockReadingStore) ListAll(ctx context.Context) ([]*domain.Interpretation, error) {
	args := m.Called(ctx)
	interps, _ := args.Get(0).([]*domain.Interpretation)
	return interps, args.Error(1)
}

func (m *MockReadingStore) ReassignOwner(ctx context.Context, fromID, toID uuid.UUID) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *MockReadingStore) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockReadingStore) WithTx(tx *sql.Tx) store.ReadingStore {
	return m
}

func (m *MockReadingStore) DB() *sql.DB {
	return m.db
}

// MockUserStore is a mock implementation of store.UserStore
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}

// MockTaskRunner is a mock implementation of the TaskRunner
type MockTaskRunner struct {
	mock.Mock
}

func (m *MockTaskRunner) Submit(ctx context.Context, t task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockExplainer is a mock implementation of explain.Explainer
type MockExplainer struct {
	mock.Mock
}

func (m *MockExplainer) Explain(ctx context.Context, req explain.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(interp domain.Interpretation) {
	m.Called(interp)
}

// stubJWTService issues predictable tokens for user service tests.
type stubJWTService struct {
	token string
	err   error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.token, s.err
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return nil, errors.New("not implemented")
}

var _ auth.JWTService = (*stubJWTService)(nil)
