// Package notify delivers lifecycle notifications to end users and operators.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Notification is one outbound message.
type Notification struct {
	Kind            string         `json:"kind"`
	Recipient       string         `json:"recipient"`
	Subject         string         `json:"subject"`
	ReferenceNumber string         `json:"reference_number"`
	Data            map[string]any `json:"data,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// Notifier sends notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. Used when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		zap.String("kind", n.Kind),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject),
		zap.String("reference_number", n.ReferenceNumber),
	)
	return nil
}
