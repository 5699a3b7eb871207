package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// KafkaWriter abstracts the output stream
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes tick events to Kafka, keyed by symbol so partition
// ordering holds per instrument.
type Publisher struct {
	writer KafkaWriter
	logger *zap.Logger
}

func NewPublisher(writer KafkaWriter, logger *zap.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

// NewKafkaWriter builds a production-tuned writer: batched async sends to
// keep publishing off the simulation tick's critical path.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

// Publish marshals and writes one batch of tick events.
func (p *Publisher) Publish(ctx context.Context, events []models.TickEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			p.logger.Error("JSON Marshal Error", zap.Error(err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.Symbol), // Key ensures partition ordering
			Value: payload,
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
