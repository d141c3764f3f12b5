// Package consumer reads decision events back from Kafka and forwards them to another sink.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"entitlement-gate/internal/telemetry"
	"entitlement-gate/internal/telemetry/domain"
)

const (
	forwardTimeout = 10 * time.Second
	readBackoff    = time.Second
)

// messageReader is the subset of *kafka.Reader used by KafkaConsumer.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads events written by producer.KafkaProducer.
type KafkaConsumer struct {
	reader messageReader
	log    *slog.Logger
}

// NewKafkaConsumer joins groupID on topic. Offsets are committed by the reader once per second.
func NewKafkaConsumer(brokers []string, topic, groupID string, log *slog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	return newKafkaConsumer(reader, log)
}

func newKafkaConsumer(reader messageReader, log *slog.Logger) *KafkaConsumer {
	if log == nil {
		log = slog.Default()
	}
	return &KafkaConsumer{reader: reader, log: log}
}

// Run forwards every event to sink until ctx is cancelled. Undecodable messages and sink failures are logged and skipped.
func (c *KafkaConsumer) Run(ctx context.Context, sink telemetry.EventEmitter) error {
	if sink == nil {
		return errors.New("consumer: sink is required")
	}
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("consumer: kafka read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readBackoff):
			}
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Warn("consumer: skipping undecodable message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}
		fwdCtx, cancel := context.WithTimeout(ctx, forwardTimeout)
		if err := sink.Emit(fwdCtx, &event); err != nil {
			c.log.Warn("consumer: forward failed", "event_type", event.EventType, "error", err)
		}
		cancel()
	}
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
