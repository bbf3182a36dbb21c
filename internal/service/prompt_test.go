package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/queue"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

const testTopic = "prompt_check"

// MockPromptRepository is a mock implementation of repository.PromptRepository
type MockPromptRepository struct {
	mock.Mock
}

func (m *MockPromptRepository) AppendPrompt(ctx context.Context, userID int64, content json.RawMessage) (*domain.Prompt, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

// MockPublisher is a mock implementation of queue.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, key, value []byte, cb queue.DeliveryCallback) error {
	args := m.Called(topic, key, value, cb)
	return args.Error(0)
}

func (m *MockPublisher) Flush(timeout time.Duration) int {
	args := m.Called(timeout)
	return args.Int(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPromptService_Submit_Success(t *testing.T) {
	mockRepo := new(MockPromptRepository)
	mockPublisher := new(MockPublisher)
	log := zap.NewNop()

	service := NewPromptService(mockRepo, mockPublisher, testTopic, log)

	req := &dto.PromptCheckRequest{
		PromptModel: "x",
		PromptText:  "hello",
	}

	storedContent := json.RawMessage(`{"prompt_model":"x","prompt_text":"hello"}`)
	stored := &domain.Prompt{
		ID:        42,
		UserID:    7,
		Content:   storedContent,
		CreatedAt: time.Now(),
	}

	mockRepo.On("AppendPrompt", mock.Anything, int64(7), mock.MatchedBy(func(content json.RawMessage) bool {
		return string(content) == string(storedContent)
	})).Return(stored, nil)

	expectedValue := `{"id":42,"payload":{"prompt_model":"x","prompt_text":"hello"}}`
	mockPublisher.On("Publish", testTopic, []byte(nil), mock.MatchedBy(func(value []byte) bool {
		return string(value) == expectedValue
	}), mock.Anything).Return(nil).Once()

	prompt, err := service.Submit(context.Background(), 7, req)

	assert.NoError(t, err)
	assert.NotNil(t, prompt)
	assert.Equal(t, int64(42), prompt.ID)
	assert.JSONEq(t, string(storedContent), string(prompt.Content))
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestPromptService_Submit_StorageErrorNothingPublished(t *testing.T) {
	mockRepo := new(MockPromptRepository)
	mockPublisher := new(MockPublisher)
	log := zap.NewNop()

	service := NewPromptService(mockRepo, mockPublisher, testTopic, log)

	storageErr := &repository.StorageError{Op: "append prompt", Err: errors.New("connection refused")}
	mockRepo.On("AppendPrompt", mock.Anything, int64(7), mock.Anything).Return(nil, storageErr)

	prompt, err := service.Submit(context.Background(), 7, &dto.PromptCheckRequest{
		PromptModel: "x",
		PromptText:  "hello",
	})

	assert.Error(t, err)
	assert.Nil(t, prompt)

	var se *repository.StorageError
	assert.ErrorAs(t, err, &se)
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestPromptService_Submit_DeliveryFailureStillReturnsRecord(t *testing.T) {
	mockRepo := new(MockPromptRepository)
	mockPublisher := new(MockPublisher)
	log := zap.NewNop()

	service := NewPromptService(mockRepo, mockPublisher, testTopic, log)

	stored := &domain.Prompt{
		ID:      101,
		UserID:  7,
		Content: json.RawMessage(`{"prompt_model":"x","prompt_text":"hello"}`),
	}
	mockRepo.On("AppendPrompt", mock.Anything, int64(7), mock.Anything).Return(stored, nil)

	var captured queue.DeliveryCallback
	mockPublisher.On("Publish", testTopic, []byte(nil), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(3).(queue.DeliveryCallback)
		}).
		Return(nil)

	prompt, err := service.Submit(context.Background(), 7, &dto.PromptCheckRequest{
		PromptModel: "x",
		PromptText:  "hello",
	})

	// The caller observes success based on persistence only.
	assert.NoError(t, err)
	assert.NotNil(t, prompt)
	assert.Equal(t, int64(101), prompt.ID)

	// A later delivery failure is absorbed by the callback.
	assert.NotNil(t, captured)
	captured(queue.Delivery{Topic: testTopic, Attempts: 1, Err: queue.ErrBrokerUnreachable})
}

func TestPromptService_Submit_QueueFull(t *testing.T) {
	mockRepo := new(MockPromptRepository)
	mockPublisher := new(MockPublisher)
	log := zap.NewNop()

	service := NewPromptService(mockRepo, mockPublisher, testTopic, log)

	stored := &domain.Prompt{
		ID:      55,
		UserID:  7,
		Content: json.RawMessage(`{"prompt_model":"x","prompt_text":"hello"}`),
	}
	mockRepo.On("AppendPrompt", mock.Anything, int64(7), mock.Anything).Return(stored, nil)
	mockPublisher.On("Publish", testTopic, []byte(nil), mock.Anything, mock.Anything).Return(queue.ErrQueueFull)

	prompt, err := service.Submit(context.Background(), 7, &dto.PromptCheckRequest{
		PromptModel: "x",
		PromptText:  "hello",
	})

	// The record is durable; the degraded publish is reported alongside it.
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.NotNil(t, prompt)
	assert.Equal(t, int64(55), prompt.ID)
}

// pendingPublisher accepts publishes but never fires the delivery callback,
// emulating a broker that withholds acknowledgment indefinitely.
type pendingPublisher struct {
	mu    sync.Mutex
	calls int
	cb    queue.DeliveryCallback
}

func (p *pendingPublisher) Publish(topic string, key, value []byte, cb queue.DeliveryCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.cb = cb
	return nil
}

func (p *pendingPublisher) Flush(timeout time.Duration) int { return 1 }

func (p *pendingPublisher) Close() error { return nil }

func TestPromptService_Submit_ReturnsBeforeDelivery(t *testing.T) {
	mockRepo := new(MockPromptRepository)
	publisher := &pendingPublisher{}
	log := zap.NewNop()

	service := NewPromptService(mockRepo, publisher, testTopic, log)

	stored := &domain.Prompt{
		ID:      9,
		UserID:  7,
		Content: json.RawMessage(`{"prompt_model":"x","prompt_text":"hello"}`),
	}
	mockRepo.On("AppendPrompt", mock.Anything, int64(7), mock.Anything).Return(stored, nil)

	start := time.Now()
	prompt, err := service.Submit(context.Background(), 7, &dto.PromptCheckRequest{
		PromptModel: "x",
		PromptText:  "hello",
	})
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.NotNil(t, prompt)
	assert.Equal(t, 1, publisher.calls)
	assert.Less(t, elapsed, 500*time.Millisecond,
		"Submit must not wait for broker acknowledgment")
}
