package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
	"github.com/wojiaofengzhongzhuifeng/count-number/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 4),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, prefix string) (*EventPublisher, *fakeAsyncProducer) {
	t.Helper()

	asyncProducer := newFakeAsyncProducer()
	producer := newProducer(asyncProducer, config.KafkaSettings{TopicPrefix: prefix}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = producer.Close() })

	publisher := NewEventPublisher(producer, config.AppSettings{Name: "count-number", Env: "test"}, zaptest.NewLogger(t))
	return publisher, asyncProducer
}

func TestPublishCounterChanged(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t, "app")

	occurredAt := time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC)
	event := domain.CounterChangedEvent{
		EventID:    "event-123",
		Action:     domain.CounterActionIncremented,
		CounterID:  "counter-1",
		UserID:     "user-1",
		Name:       "clicks",
		Value:      6,
		Delta:      1,
		OccurredAt: occurredAt,
	}

	if err := publisher.PublishCounterChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishCounterChanged returned error: %v", err)
	}

	msg := <-asyncProducer.input
	if msg.Topic != "app.counter.incremented" {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}
	key, err := msg.Key.Encode()
	if err != nil || string(key) != "user-1" {
		t.Fatalf("expected key user-1, got %q (err %v)", key, err)
	}

	value, err := msg.Value.Encode()
	if err != nil {
		t.Fatalf("encode value: %v", err)
	}

	var envelope struct {
		EventID   string            `json:"event_id"`
		EventType string            `json:"event_type"`
		UserID    string            `json:"user_id"`
		Timestamp time.Time         `json:"timestamp"`
		Version   string            `json:"version"`
		Metadata  map[string]string `json:"metadata"`
		Payload   struct {
			CounterID string `json:"counter_id"`
			Name      string `json:"name"`
			Value     int64  `json:"value"`
			Delta     int64  `json:"delta"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if envelope.EventID != "event-123" || envelope.EventType != "counter.incremented" {
		t.Fatalf("unexpected envelope header %+v", envelope)
	}
	if !envelope.Timestamp.Equal(occurredAt) || envelope.Version != schemaVersion {
		t.Fatalf("unexpected timestamp or version %+v", envelope)
	}
	if envelope.Payload.Value != 6 || envelope.Payload.Delta != 1 || envelope.Payload.Name != "clicks" {
		t.Fatalf("unexpected payload %+v", envelope.Payload)
	}
	if envelope.Metadata["service"] != "count-number" {
		t.Fatalf("expected service metadata, got %v", envelope.Metadata)
	}
}

func TestPublishTaskChangedWithoutPrefix(t *testing.T) {
	publisher, asyncProducer := newTestPublisher(t, "")

	event := domain.TaskChangedEvent{
		Action:   domain.TaskActionCreated,
		TaskID:   "task-1",
		UserID:   "user-1",
		Title:    "buy milk",
		Priority: domain.TaskPriorityHigh,
	}
	if err := publisher.PublishTaskChanged(context.Background(), event); err != nil {
		t.Fatalf("PublishTaskChanged returned error: %v", err)
	}

	msg := <-asyncProducer.input
	if msg.Topic != "task.created" {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}

	value, _ := msg.Value.Encode()
	var envelope struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.EventID == "" {
		t.Fatalf("expected generated event id")
	}
}

func TestPublishHonoursContextCancellation(t *testing.T) {
	asyncProducer := &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage),
		errors: make(chan *sarama.ProducerError),
	}
	producer := newProducer(asyncProducer, config.KafkaSettings{}, zaptest.NewLogger(t))
	defer producer.Close()
	publisher := NewEventPublisher(producer, config.AppSettings{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishCounterChanged(ctx, domain.CounterChangedEvent{Action: domain.CounterActionCreated, UserID: "u"})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTopicName(t *testing.T) {
	producer := &Producer{cfg: config.KafkaSettings{TopicPrefix: "app"}}

	if got := producer.TopicName("counter.created"); got != "app.counter.created" {
		t.Fatalf("unexpected topic %q", got)
	}
	if got := producer.TopicName("app.counter.created"); got != "app.counter.created" {
		t.Fatalf("prefix should not be doubled, got %q", got)
	}
}

func TestProducerForwardsDeliveryErrors(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	producer := newProducer(asyncProducer, config.KafkaSettings{}, zaptest.NewLogger(t))
	defer producer.Close()

	asyncProducer.errors <- &sarama.ProducerError{
		Msg: &sarama.ProducerMessage{Topic: "counter.created"},
		Err: sarama.ErrOutOfBrokers,
	}

	select {
	case err := <-producer.Errors():
		if err != sarama.ErrOutOfBrokers {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected delivery error to be forwarded")
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(config.KafkaSettings{}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestStubPublisher(t *testing.T) {
	stub := NewStubPublisher(zaptest.NewLogger(t))
	if err := stub.PublishCounterChanged(context.Background(), domain.CounterChangedEvent{Action: domain.CounterActionDeleted}); err != nil {
		t.Fatalf("stub returned error: %v", err)
	}
	if err := stub.PublishTaskChanged(context.Background(), domain.TaskChangedEvent{Action: domain.TaskActionUpdated}); err != nil {
		t.Fatalf("stub returned error: %v", err)
	}
}
