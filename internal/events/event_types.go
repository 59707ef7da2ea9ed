package events

import (
	"time"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request.created"
	EventRequestUpdated       EventType = "request.updated"
	EventRequestStatusChanged EventType = "request.status_changed"
	EventRequestCancelled     EventType = "request.cancelled"
	EventNoteAdded            EventType = "note.added"
	EventDocumentAttached     EventType = "document.attached"
	EventPaymentRecorded      EventType = "payment.recorded"
)

// AllEventTypes lists every event a service publishes.
func AllEventTypes() []EventType {
	return []EventType{
		EventRequestCreated,
		EventRequestUpdated,
		EventRequestStatusChanged,
		EventRequestCancelled,
		EventNoteAdded,
		EventDocumentAttached,
		EventPaymentRecorded,
	}
}

// Actor identifies who caused an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// ActorFrom converts a principal to an event actor.
func ActorFrom(p domain.Principal) Actor {
	return Actor{ID: p.ID, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	RequestID       string      `json:"request_id"`
	ReferenceNumber string      `json:"reference_number"`
	OwnerID         string      `json:"owner_id"`
	ServiceType     string      `json:"service_type"`
	Actor           Actor       `json:"actor"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Subtype             string          `json:"subtype"`
	Priority            domain.Priority `json:"priority"`
	TotalAmount         domain.Amount   `json:"total_amount"`
	EstimatedCompletion time.Time       `json:"estimated_completion"`
}

// RequestUpdatedPayload payload.
type RequestUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Note      string               `json:"note,omitempty"`
}

// RequestCancelledPayload payload.
type RequestCancelledPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	Reason    string               `json:"reason"`
}

// NoteAddedPayload payload.
type NoteAddedPayload struct {
	NoteID  string            `json:"note_id"`
	Origin  domain.NoteOrigin `json:"origin"`
	Preview string            `json:"preview"`
}

// DocumentAttachedPayload payload.
type DocumentAttachedPayload struct {
	DocumentID string                  `json:"document_id"`
	Name       string                  `json:"name"`
	MimeType   string                  `json:"mime_type"`
	SizeBytes  int64                   `json:"size_bytes"`
	Category   domain.DocumentCategory `json:"category"`
}

// PaymentRecordedPayload payload.
type PaymentRecordedPayload struct {
	Amount        domain.Amount        `json:"amount"`
	PaidAmount    domain.Amount        `json:"paid_amount"`
	TotalAmount   domain.Amount        `json:"total_amount"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}
