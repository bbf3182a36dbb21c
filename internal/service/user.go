package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

// ErrEmailTaken is returned when registering an already-registered email.
var ErrEmailTaken = errors.New("email already registered")

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// UserService manages user accounts
type UserService struct {
	users repository.UserRepository
	log   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		users: users,
		log:   log,
	}
}

// CreateUser registers a new account with a bcrypt-hashed password
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Registration with taken email", zap.String("email", req.Email))
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	return user, nil
}

// ListUsers returns accounts with offset pagination; limit defaults to 100
// and is capped at 1000.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	users, err := s.users.ListUsers(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
