package repository

import (
	"context"
	"encoding/json"

	"github.com/GingerBreadIdeas/echker/internal/domain"
)

// PromptRepository defines the durable append operation for prompt-check
// records. Appends are atomic: either the full record is written and an id
// assigned, or nothing is written. There is no update or delete.
type PromptRepository interface {
	// AppendPrompt stores a new record owned by userID. Identical content
	// appended twice yields two distinct records; the store never dedups.
	AppendPrompt(ctx context.Context, userID int64, content json.RawMessage) (*domain.Prompt, error)
}

// UserRepository defines user account storage operations
type UserRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error)
}

// MessageRepository defines chat message storage operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, userID int64, role, content string) (*domain.ChatMessage, error)
	ListMessagesByUser(ctx context.Context, userID int64) ([]domain.ChatMessage, error)
}

// Store groups the storage interfaces with connection lifecycle management
type Store interface {
	PromptRepository
	UserRepository
	MessageRepository

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the store and releases resources
	Close() error
}
