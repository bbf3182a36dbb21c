package service

import (
	"context"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
)

// PromptServicer defines the prompt submission operation
type PromptServicer interface {
	Submit(ctx context.Context, userID int64, req *dto.PromptCheckRequest) (*domain.Prompt, error)
}

// UserServicer defines user account operations
type UserServicer interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error)
}

// ChatServicer defines chat message operations
type ChatServicer interface {
	CreateMessage(ctx context.Context, userID int64, req *dto.CreateMessageRequest) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error)
}

// AuthServicer defines login and token verification
type AuthServicer interface {
	Login(ctx context.Context, req *dto.LoginRequest) (string, error)
	Authenticate(token string) (int64, error)
}
