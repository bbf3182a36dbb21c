package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/internal/domain"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/metrics"
	"github.com/GingerBreadIdeas/echker/internal/queue"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

// PromptService coordinates "persist then publish" for prompt submissions.
//
// Ordering and guarantees: the record is stored durably first; the publish
// is queued best-effort and Submit returns without waiting for broker
// acknowledgment. Delivery beyond the store is at-most-once: a crash after
// the append or a failed delivery loses the event downstream but never the
// record. Delivery failures are logged and counted, never retried.
type PromptService struct {
	store     repository.PromptRepository
	publisher queue.Publisher
	topic     string
	log       *zap.Logger
}

// NewPromptService creates a new prompt service publishing to topic
func NewPromptService(store repository.PromptRepository, publisher queue.Publisher, topic string, log *zap.Logger) *PromptService {
	return &PromptService{
		store:     store,
		publisher: publisher,
		topic:     topic,
		log:       log,
	}
}

// promptEnvelope is the wire format handed to the queue: the assigned id
// plus the stored payload echoed verbatim, as UTF-8 JSON.
type promptEnvelope struct {
	ID      int64           `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Submit stores the prompt for userID and queues it for publication.
//
// Storage failures are returned immediately and nothing is published.
// When the publisher reports backpressure the stored record is returned
// together with queue.ErrQueueFull so the caller can signal the degraded
// publish; the record stays durable either way. Messages carry no
// partition key: the queue is unordered.
func (s *PromptService) Submit(ctx context.Context, userID int64, req *dto.PromptCheckRequest) (*domain.Prompt, error) {
	content, err := json.Marshal(map[string]string{
		"prompt_model": req.PromptModel,
		"prompt_text":  req.PromptText,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompt content: %w", err)
	}

	prompt, err := s.store.AppendPrompt(ctx, userID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to append prompt: %w", err)
	}

	value, err := json.Marshal(promptEnvelope{ID: prompt.ID, Payload: prompt.Content})
	if err != nil {
		// The record is durable; treat the lost publish like a delivery failure.
		metrics.PublishFailed.Inc()
		s.log.Error("Failed to marshal prompt envelope",
			zap.Int64("prompt_id", prompt.ID),
			zap.Error(err))
		return prompt, nil
	}

	err = s.publisher.Publish(s.topic, nil, value, s.deliveryReport(prompt.ID))
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			metrics.PublishQueueFull.Inc()
		} else {
			metrics.PublishFailed.Inc()
		}
		s.log.Warn("Prompt stored but not queued for delivery",
			zap.Int64("prompt_id", prompt.ID),
			zap.String("topic", s.topic),
			zap.Error(err))
		return prompt, err
	}

	s.log.Info("Prompt stored and queued",
		zap.Int64("prompt_id", prompt.ID),
		zap.Int64("user_id", userID),
		zap.String("topic", s.topic))

	return prompt, nil
}

// deliveryReport observes the eventual publish outcome. No retry on
// failure; the loss is visible in logs and metrics only.
func (s *PromptService) deliveryReport(promptID int64) queue.DeliveryCallback {
	return func(d queue.Delivery) {
		if d.Err != nil {
			metrics.PublishFailed.Inc()
			s.log.Error("Prompt event delivery failed",
				zap.Int64("prompt_id", promptID),
				zap.String("topic", d.Topic),
				zap.Int("attempts", d.Attempts),
				zap.Error(d.Err))
			return
		}
		metrics.PublishDelivered.Inc()
		s.log.Info("Prompt event delivered",
			zap.Int64("prompt_id", promptID),
			zap.String("topic", d.Topic))
	}
}
