package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/port"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher on top of Producer.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

var _ port.EventPublisher = (*EventPublisher)(nil)

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type counterPayload struct {
	CounterID string `json:"counter_id"`
	Name      string `json:"name"`
	Value     int64  `json:"value"`
	Delta     int64  `json:"delta,omitempty"`
}

type taskPayload struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title,omitempty"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority,omitempty"`
}

// PublishCounterChanged sends counter.<action> events keyed by the owner.
func (p *EventPublisher) PublishCounterChanged(ctx context.Context, event domain.CounterChangedEvent) error {
	payload := counterPayload{
		CounterID: event.CounterID,
		Name:      event.Name,
		Value:     event.Value,
		Delta:     event.Delta,
	}
	return p.publish(ctx, event.EventID, "counter."+string(event.Action), event.UserID, event.OccurredAt, payload)
}

// PublishTaskChanged sends task.<action> events keyed by the owner.
func (p *EventPublisher) PublishTaskChanged(ctx context.Context, event domain.TaskChangedEvent) error {
	payload := taskPayload{
		TaskID:    event.TaskID,
		Title:     event.Title,
		Completed: event.Completed,
		Priority:  string(event.Priority),
	}
	return p.publish(ctx, event.EventID, "task."+string(event.Action), event.UserID, event.OccurredAt, payload)
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if p.producer == nil {
		return fmt.Errorf("kafka producer not configured")
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
		},
	}

	select {
	case p.producer.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
