package infra

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriter builds a writer for topic on the given brokers. Connections are
// opened lazily on the first write.
func NewKafkaWriter(brokers []string, topic string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, nil
}
