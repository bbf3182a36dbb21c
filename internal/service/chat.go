package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

// ChatService manages per-user chat history
type ChatService struct {
	messages repository.MessageRepository
	log      *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(messages repository.MessageRepository, log *zap.Logger) *ChatService {
	return &ChatService{
		messages: messages,
		log:      log,
	}
}

// CreateMessage stores a chat message for userID
func (s *ChatService) CreateMessage(ctx context.Context, userID int64, req *dto.CreateMessageRequest) (*domain.ChatMessage, error) {
	msg, err := s.messages.CreateMessage(ctx, userID, req.Role, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.log.Info("Chat message created",
		zap.Int64("message_id", msg.ID),
		zap.Int64("user_id", userID),
		zap.String("role", msg.Role))

	return msg, nil
}

// ListMessages returns userID's chat history, oldest first
func (s *ChatService) ListMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	messages, err := s.messages.ListMessagesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}
