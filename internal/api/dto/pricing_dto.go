package dto

import (
	"time"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// PricingEntryRequest creates or replaces the entry for a key. Price is in kobo.
type PricingEntryRequest struct {
	ServiceType domain.ServiceType `json:"service_type"`
	Subtype     string             `json:"subtype"`
	Priority    domain.Priority    `json:"priority"`
	Price       int64              `json:"price"`
	Duration    string             `json:"duration"`
	Features    []string           `json:"features"`
}

// PricingEntryResponse entry.
type PricingEntryResponse struct {
	ID          string             `json:"id"`
	ServiceType domain.ServiceType `json:"service_type"`
	Subtype     string             `json:"subtype"`
	Priority    domain.Priority    `json:"priority"`
	Price       MoneyResponse      `json:"price"`
	Duration    string             `json:"duration"`
	Features    []string           `json:"features"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ReplacePricingResponse pairs the new entry with the one it superseded.
type ReplacePricingResponse struct {
	Entry    PricingEntryResponse  `json:"entry"`
	Previous *PricingEntryResponse `json:"previous"`
}

// QuoteResponse is the price a new request would be charged.
type QuoteResponse struct {
	ServiceType   domain.ServiceType   `json:"service_type"`
	Subtype       string               `json:"subtype"`
	Priority      domain.Priority      `json:"priority"`
	Price         MoneyResponse        `json:"price"`
	ProcessingFee MoneyResponse        `json:"processing_fee"`
	Total         MoneyResponse        `json:"total"`
	Duration      string               `json:"duration"`
	Features      []string             `json:"features"`
	Source        domain.PricingSource `json:"source"`
	EntryID       *string              `json:"entry_id,omitempty"`
}

// TokenResponse is returned when a bearer token is minted.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
