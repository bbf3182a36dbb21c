package dto

// PromptCheckRequest represents a prompt submission request
type PromptCheckRequest struct {
	PromptText  string `json:"prompt_text" binding:"required" example:"You are a friendly assistant."`
	PromptModel string `json:"prompt_model" binding:"required" example:"deepseek-r1:1.5b"`
}

// CreateUserRequest represents a user registration request
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email" example:"example@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"hunter2hunter2"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"example@example.com"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

// CreateMessageRequest represents a chat message creation request
type CreateMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant" example:"user"`
	Content string `json:"content" binding:"required" example:"Tell me about cats."`
}

// ListUsersRequest represents a paginated user listing request
type ListUsersRequest struct {
	Skip  int `form:"skip" example:"0"`
	Limit int `form:"limit" example:"100"`
}
