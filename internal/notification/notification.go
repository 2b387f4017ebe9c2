package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindTransferReceived tells a user that value arrived in one of their wallets.
	KindTransferReceived = "transfer_received"
)

// Message describes a notification payload.
type Message struct {
	Kind       string    `json:"kind"`
	Recipient  string    `json:"recipient"`
	Reference  string    `json:"reference"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. It is the
// fallback when no broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("recipient", message.Recipient),
		slog.String("reference", message.Reference),
		slog.String("body", message.Body),
	)
	return nil
}
