package dto

import (
	"encoding/json"
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"prompt_text is required"`
}

// PromptCheckResponse represents an accepted prompt submission. A 202
// response means the record is durably stored; delivery to downstream
// consumers is best-effort and not guaranteed.
type PromptCheckResponse struct {
	ID        int64           `json:"id" example:"42"`
	Status    string          `json:"status" example:"accepted"`
	Content   json.RawMessage `json:"content" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
}

// QueueFullResponse reports producer backpressure on a prompt that was
// durably stored: the id identifies the record whose publish was refused.
type QueueFullResponse struct {
	Error   string `json:"error" example:"queue_full"`
	Message string `json:"message" example:"prompt stored but not queued for delivery"`
	ID      int64  `json:"id" example:"42"`
}

// UserResponse represents a user record
type UserResponse struct {
	ID       int64  `json:"id" example:"7"`
	Email    string `json:"email" example:"example@example.com"`
	IsActive bool   `json:"is_active" example:"true"`
}

// TokenResponse represents an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

// MessageResponse represents a chat message record
type MessageResponse struct {
	ID        int64     `json:"id" example:"3"`
	Role      string    `json:"role" example:"user"`
	Content   string    `json:"content" example:"Tell me about cats."`
	CreatedAt time.Time `json:"created_at"`
}
