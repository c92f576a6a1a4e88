package port

import (
	"context"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishCounterChanged(ctx context.Context, event domain.CounterChangedEvent) error
	PublishTaskChanged(ctx context.Context, event domain.TaskChangedEvent) error
}
