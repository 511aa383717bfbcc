package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

// Publisher enqueues domain events for broker fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel, eventType string, payload interface{}) error
}

// Service writes events to the transactional outbox; the worker drains
// them to the message broker.
type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Publish(ctx context.Context, channel, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return s.repo.Insert(ctx, &model.OutboxEvent{
		Channel:   channel,
		EventType: eventType,
		Payload:   data,
	})
}
