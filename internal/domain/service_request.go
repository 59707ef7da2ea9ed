package domain

import "time"

// ServiceType identifies the professional-service domain a request belongs to.
type ServiceType string

const (
	ServiceTypeBusinessRegistration ServiceType = "business_registration"
	ServiceTypeDueDiligence         ServiceType = "due_diligence"
	ServiceTypeIPProtection         ServiceType = "ip_protection"
	ServiceTypeBusinessService      ServiceType = "business_service"
)

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	StatusSubmitted      RequestStatus = "submitted"
	StatusRequiresAction RequestStatus = "requires_action"
	StatusProcessing     RequestStatus = "processing"
	StatusUnderReview    RequestStatus = "under_review"
	StatusCompleted      RequestStatus = "completed"
	StatusCancelled      RequestStatus = "cancelled"
)

// Terminal reports whether no transition may leave the status.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Editable reports whether owners may still change or cancel the request.
func (s RequestStatus) Editable() bool {
	return s == StatusSubmitted || s == StatusRequiresAction
}

// Priority enumerates SLA and pricing tiers.
type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityExpress  Priority = "express"
	PriorityUrgent   Priority = "urgent"
)

// Valid reports whether p is a known tier.
func (p Priority) Valid() bool {
	switch p {
	case PriorityStandard, PriorityExpress, PriorityUrgent:
		return true
	}
	return false
}

// PaymentStatus is derived from paid vs total amount.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentStatusFor derives the payment status for the given amounts.
func PaymentStatusFor(paid, total Amount) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentUnpaid
	case paid >= total:
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// ServiceRequest is the aggregate tracked from intake through completion.
type ServiceRequest struct {
	ID                  string
	OwnerID             string
	ServiceType         ServiceType
	ServiceSubtype      string
	ReferenceNumber     string
	Status              RequestStatus
	Priority            Priority
	Details             map[string]string
	TotalAmount         Amount
	PaidAmount          Amount
	PaymentStatus       PaymentStatus
	EstimatedCompletion time.Time
	ActualCompletion    *time.Time
	Notes               []Note
	Documents           []DocumentAttachment
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
