package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

func TestUserService_CreateUser_HashesPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewUserService(mockUsers, zap.NewNop())

	var storedHash string
	mockUsers.On("CreateUser", mock.Anything, "example@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
		}).
		Return(&domain.User{ID: 7, Email: "example@example.com", IsActive: true}, nil)

	user, err := service.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NotEqual(t, "hunter2hunter2", storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("hunter2hunter2")))
}

func TestUserService_CreateUser_EmailTaken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewUserService(mockUsers, zap.NewNop())

	dup := &repository.StorageError{Op: "create user", Err: repository.ErrDuplicate}
	mockUsers.On("CreateUser", mock.Anything, "example@example.com", mock.Anything).Return(nil, dup)

	user, err := service.CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:    "example@example.com",
		Password: "hunter2hunter2",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_ListUsers_DefaultsAndCaps(t *testing.T) {
	mockUsers := new(MockUserRepository)
	service := NewUserService(mockUsers, zap.NewNop())

	mockUsers.On("ListUsers", mock.Anything, 0, 100).Return([]domain.User{}, nil).Once()
	_, err := service.ListUsers(context.Background(), -5, 0)
	assert.NoError(t, err)

	mockUsers.On("ListUsers", mock.Anything, 10, 1000).Return([]domain.User{}, nil).Once()
	_, err = service.ListUsers(context.Background(), 10, 5000)
	assert.NoError(t, err)

	mockUsers.AssertExpectations(t)
}
