package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GingerBreadIdeas/echker/internal/config"
	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, email, hashedPassword string) (*domain.User, error) {
	args := m.Called(ctx, email, hashedPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func testAuthConfig() config.Auth {
	return config.Auth{JWTSecret: "test-secret", TokenTTLMin: 60}
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &domain.User{
		ID:             7,
		Email:          "example@example.com",
		HashedPassword: string(hashed),
		IsActive:       true,
	}
}

func TestAuthService_Login_IssuesVerifiableToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	user := activeUser(t, "hunter2hunter2")
	mockUsers.On("GetUserByEmail", mock.Anything, "example@example.com").Return(user, nil)

	token, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := service.Authenticate(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	user := activeUser(t, "hunter2hunter2")
	mockUsers.On("GetUserByEmail", mock.Anything, "example@example.com").Return(user, nil)

	token, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "example@example.com",
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	notFound := &repository.StorageError{Op: "get user by email", Err: repository.ErrNotFound}
	mockUsers.On("GetUserByEmail", mock.Anything, "missing@example.com").Return(nil, notFound)

	token, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "missing@example.com",
		Password: "hunter2hunter2",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	user := activeUser(t, "hunter2hunter2")
	user.IsActive = false
	mockUsers.On("GetUserByEmail", mock.Anything, "example@example.com").Return(user, nil)

	_, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Authenticate_ExpiredToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	user := activeUser(t, "hunter2hunter2")
	mockUsers.On("GetUserByEmail", mock.Anything, "example@example.com").Return(user, nil)

	issuedAt := time.Now()
	service.now = func() time.Time { return issuedAt }

	token, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})
	assert.NoError(t, err)

	// Advance past the token TTL.
	service.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }

	_, err = service.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Authenticate_ForgedToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	other := NewAuthService(mockUsers, config.Auth{JWTSecret: "other-secret", TokenTTLMin: 60}, zap.NewNop())

	user := activeUser(t, "hunter2hunter2")
	mockUsers.On("GetUserByEmail", mock.Anything, "example@example.com").Return(user, nil)

	token, err := other.Login(context.Background(), &dto.LoginRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})
	assert.NoError(t, err)

	_, err = service.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Authenticate_Garbage(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewAuthService(mockUsers, testAuthConfig(), zap.NewNop())

	_, err := service.Authenticate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
