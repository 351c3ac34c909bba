package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/kutbudev/crud-docs/pkg/service"
)

// Publisher forwards service lifecycle events to a Kafka topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducer connects a synchronous producer to the given brokers
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

func NewPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// OnEvent publishes the event. Failures are logged and never surface to the caller.
func (p *Publisher) OnEvent(_ context.Context, event service.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", "error", err, "type", event.Type)
		return
	}

	eventID := uuid.NewString()
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(entityReference(event)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(eventID)},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("Failed to publish event",
			"error", err,
			"topic", p.topic,
			"event_id", eventID,
			"type", event.Type)
		return
	}

	p.logger.Debug("Published event",
		"event_id", eventID,
		"type", event.Type,
		"partition", partition,
		"offset", offset)
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

// entityReference keys messages by entity so events for one entity stay ordered
func entityReference(event service.Event) string {
	kind, _, _ := strings.Cut(string(event.Type), ".")
	return fmt.Sprintf("%s:%d", kind, event.ID)
}
