package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON records keyed by reference,
// so every event of one transaction lands on the same partition.
type KafkaNotifier struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaNotifier wraps a writer. A zero timeout defaults to five seconds.
func NewKafkaNotifier(writer MessageWriter, timeout time.Duration) *KafkaNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaNotifier{writer: writer, timeout: timeout}
}

// Send encodes and writes the message.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.Reference),
		Value: value,
		Time:  message.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(message.Kind)},
		},
	}); err != nil {
		return fmt.Errorf("write notification to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
