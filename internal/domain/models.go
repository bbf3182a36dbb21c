package domain

import (
	"encoding/json"
	"time"
)

// User is an account that owns prompt-check records and chat messages.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Prompt is a durably stored prompt-check record. ID and Content are
// immutable once appended; CreatedAt is assigned by the store exactly once.
type Prompt struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Content   json.RawMessage `db:"content" json:"content"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ChatMessage is a single message in a user's chat history.
type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
