package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
)

// StubPublisher logs events instead of sending them. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

var _ port.EventPublisher = (*StubPublisher)(nil)

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.logger.Debug("event published",
		append([]zap.Field{
			zap.String("event_type", eventType),
			zap.String("user_id", userID),
			zap.Time("timestamp", at.UTC()),
		}, fields...)...,
	)
}

// PublishCounterChanged logs counter.<action> events.
func (p *StubPublisher) PublishCounterChanged(_ context.Context, event domain.CounterChangedEvent) error {
	p.logEvent("counter."+string(event.Action), event.UserID, event.OccurredAt,
		zap.String("counter_id", event.CounterID),
		zap.String("name", event.Name),
		zap.Int64("value", event.Value),
		zap.Int64("delta", event.Delta),
	)
	return nil
}

// PublishTaskChanged logs task.<action> events.
func (p *StubPublisher) PublishTaskChanged(_ context.Context, event domain.TaskChangedEvent) error {
	p.logEvent("task."+string(event.Action), event.UserID, event.OccurredAt,
		zap.String("task_id", event.TaskID),
		zap.Bool("completed", event.Completed),
	)
	return nil
}
