package dto

import (
	"time"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	ServiceType domain.ServiceType `json:"service_type"`
	Subtype     string             `json:"subtype"`
	Priority    domain.Priority    `json:"priority"`
	Details     map[string]string  `json:"details"`
}

// UpdateRequestRequest carries a partial details patch.
type UpdateRequestRequest struct {
	Details map[string]string `json:"details"`
}

// TransitionRequest moves a request to another status.
type TransitionRequest struct {
	Status domain.RequestStatus `json:"status"`
	Note   string               `json:"note"`
}

// CancelRequest payload.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// NoteRequest payload.
type NoteRequest struct {
	Message string `json:"message"`
}

// PaymentRequest records money received, in kobo.
type PaymentRequest struct {
	Amount int64 `json:"amount"`
}

// DocumentRequest is the JSON alternative to a multipart upload.
// Content is base64 encoded on the wire.
type DocumentRequest struct {
	Name     string                  `json:"name"`
	MimeType string                  `json:"mime_type"`
	Category domain.DocumentCategory `json:"category"`
	Content  []byte                  `json:"content"`
}

// MoneyResponse renders an amount in kobo alongside its display form.
type MoneyResponse struct {
	Minor    int64  `json:"minor"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// RequestSummary response.
type RequestSummary struct {
	ID                  string               `json:"id"`
	ReferenceNumber     string               `json:"reference_number"`
	OwnerID             string               `json:"owner_id"`
	ServiceType         domain.ServiceType   `json:"service_type"`
	ServiceSubtype      string               `json:"service_subtype"`
	Status              domain.RequestStatus `json:"status"`
	Priority            domain.Priority      `json:"priority"`
	TotalAmount         MoneyResponse        `json:"total_amount"`
	PaidAmount          MoneyResponse        `json:"paid_amount"`
	PaymentStatus       domain.PaymentStatus `json:"payment_status"`
	EstimatedCompletion time.Time            `json:"estimated_completion"`
	ActualCompletion    *time.Time           `json:"actual_completion,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// RequestDetailResponse provides the full read model.
type RequestDetailResponse struct {
	RequestSummary
	Details   map[string]string  `json:"details"`
	Notes     []NoteResponse     `json:"notes"`
	Documents []DocumentResponse `json:"documents"`
}

// NoteResponse entry.
type NoteResponse struct {
	ID        string            `json:"id"`
	Message   string            `json:"message"`
	AuthorID  *string           `json:"author_id"`
	Origin    domain.NoteOrigin `json:"origin"`
	CreatedAt time.Time         `json:"created_at"`
}

// DocumentResponse carries attachment metadata only.
type DocumentResponse struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	MimeType   string                  `json:"mime_type"`
	SizeBytes  int64                   `json:"size_bytes"`
	Checksum   string                  `json:"checksum"`
	Category   domain.DocumentCategory `json:"category"`
	UploadedBy string                  `json:"uploaded_by"`
	UploadedAt time.Time               `json:"uploaded_at"`
}
