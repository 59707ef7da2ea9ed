package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/config"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/events"
	"github.com/peterfiasco/easylawBe-sub000/internal/notify"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
)

// NotificationService turns lifecycle events into notifications for request
// owners and operators. Delivery failures never reach the lifecycle operation.
type NotificationService struct {
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics
	cfg      config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(notifier notify.Notifier, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// RegisterHandlers subscribes Handle to every lifecycle event, delivering
// in-line with the publishing operation.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, n.Handle)
	}
}

// Handle delivers every notification derived from event. It returns the
// joined delivery errors so the caller can log them.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	if n.notifier == nil {
		return nil
	}
	var errs []error
	for _, msg := range n.notificationsFor(event) {
		if err := n.notifier.Notify(ctx, msg); err != nil {
			n.metrics.NotificationDelivered(msg.Kind, "failed")
			errs = append(errs, fmt.Errorf("notify %s: %w", msg.Recipient, err))
			continue
		}
		n.metrics.NotificationDelivered(msg.Kind, "ok")
	}
	return errors.Join(errs...)
}

func (n *NotificationService) notificationsFor(event events.Event) []notify.Notification {
	base := notify.Notification{
		Kind:            string(event.Type),
		ReferenceNumber: event.ReferenceNumber,
		OccurredAt:      event.Timestamp,
		Data: map[string]any{
			"service_type": event.ServiceType,
			"actor":        event.Actor,
			"payload":      event.Payload,
		},
	}
	toOwner := func(subject string) notify.Notification {
		msg := base
		msg.Recipient = event.OwnerID
		msg.Subject = subject
		return msg
	}
	toAdmin := func(subject string) notify.Notification {
		msg := base
		msg.Recipient = n.cfg.AdminRecipient
		msg.Subject = subject
		return msg
	}

	var out []notify.Notification
	switch event.Type {
	case events.EventRequestCreated:
		out = append(out, toOwner(fmt.Sprintf("Request %s received", event.ReferenceNumber)))
		out = append(out, toAdmin(fmt.Sprintf("New %s request %s", event.ServiceType, event.ReferenceNumber)))
	case events.EventRequestStatusChanged:
		subject := fmt.Sprintf("Request %s updated", event.ReferenceNumber)
		if p, ok := event.Payload.(events.StatusChangedPayload); ok {
			subject = fmt.Sprintf("Request %s is now %s", event.ReferenceNumber, p.NewStatus)
		}
		out = append(out, toOwner(subject))
	case events.EventRequestCancelled:
		out = append(out, toOwner(fmt.Sprintf("Request %s cancelled", event.ReferenceNumber)))
		if event.Actor.Role != domain.RoleAdmin {
			out = append(out, toAdmin(fmt.Sprintf("Request %s cancelled by owner", event.ReferenceNumber)))
		}
	case events.EventPaymentRecorded:
		out = append(out, toOwner(fmt.Sprintf("Payment received for %s", event.ReferenceNumber)))
	case events.EventNoteAdded, events.EventDocumentAttached, events.EventRequestUpdated:
		// Whoever did not act gets told.
		if event.Actor.Role == domain.RoleAdmin {
			out = append(out, toOwner(fmt.Sprintf("New activity on %s", event.ReferenceNumber)))
		} else {
			out = append(out, toAdmin(fmt.Sprintf("Owner activity on %s", event.ReferenceNumber)))
		}
	}

	filtered := out[:0]
	for _, msg := range out {
		if msg.Recipient == "" {
			n.logger.Debug("notification skipped; no recipient",
				zap.String("kind", msg.Kind),
				zap.String("reference_number", msg.ReferenceNumber))
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}
