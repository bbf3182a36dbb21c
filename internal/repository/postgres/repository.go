package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

// Repository implements repository.Store for PostgreSQL
type Repository struct {
	client *Client
	log    *zap.Logger
}

var _ repository.Store = (*Repository)(nil)

// NewRepository creates a new PostgreSQL repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// storageErr classifies a driver error into the repository error taxonomy.
func storageErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &repository.StorageError{Op: op, Err: fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Message)}
		case "23503":
			return &repository.StorageError{Op: op, Err: fmt.Errorf("%w: %s", repository.ErrForeignKey, pqErr.Message)}
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &repository.StorageError{Op: op, Err: repository.ErrNotFound}
	}
	return &repository.StorageError{Op: op, Err: err}
}

// AppendPrompt durably stores a prompt-check record and returns it with the
// store-assigned id and creation timestamp. The insert is a single
// transaction: on error nothing is written.
func (r *Repository) AppendPrompt(ctx context.Context, userID int64, content json.RawMessage) (*domain.Prompt, error) {
	prompt := &domain.Prompt{
		UserID:  userID,
		Content: content,
	}

	row := r.client.DB().QueryRowxContext(ctx,
		`INSERT INTO prompt_check (user_id, content) VALUES ($1, $2::jsonb) RETURNING id, created_at`,
		userID, string(content),
	)
	if err := row.Scan(&prompt.ID, &prompt.CreatedAt); err != nil {
		r.log.Error("Failed to append prompt",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, storageErr("append prompt", err)
	}

	return prompt, nil
}

// CreateUser inserts a new user account
func (r *Repository) CreateUser(ctx context.Context, email, hashedPassword string) (*domain.User, error) {
	var user domain.User
	err := r.client.DB().GetContext(ctx, &user,
		`INSERT INTO users (email, hashed_password)
		 VALUES ($1, $2)
		 RETURNING id, email, hashed_password, is_active, created_at`,
		email, hashedPassword,
	)
	if err != nil {
		return nil, storageErr("create user", err)
	}

	return &user, nil
}

// GetUserByEmail fetches a user account by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.client.DB().GetContext(ctx, &user,
		`SELECT id, email, hashed_password, is_active, created_at
		 FROM users WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, storageErr("get user by email", err)
	}

	return &user, nil
}

// ListUsers returns user accounts with offset pagination
func (r *Repository) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	users := []domain.User{}
	err := r.client.DB().SelectContext(ctx, &users,
		`SELECT id, email, hashed_password, is_active, created_at
		 FROM users ORDER BY id OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, storageErr("list users", err)
	}

	return users, nil
}

// CreateMessage inserts a chat message owned by userID
func (r *Repository) CreateMessage(ctx context.Context, userID int64, role, content string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.client.DB().GetContext(ctx, &msg,
		`INSERT INTO chat_messages (user_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, role, content, created_at`,
		userID, role, content,
	)
	if err != nil {
		return nil, storageErr("create message", err)
	}

	return &msg, nil
}

// ListMessagesByUser returns the chat history for a user, oldest first
func (r *Repository) ListMessagesByUser(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	messages := []domain.ChatMessage{}
	err := r.client.DB().SelectContext(ctx, &messages,
		`SELECT id, user_id, role, content, created_at
		 FROM chat_messages WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, storageErr("list messages", err)
	}

	return messages, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the underlying connection pool
func (r *Repository) Close() error {
	return r.client.Close()
}
