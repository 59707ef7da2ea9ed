package domain

import (
	"fmt"
	"time"
)

// Amount is a currency value in minor units (kobo).
type Amount int64

// NGN builds an Amount from whole naira.
func NGN(major int64) Amount {
	return Amount(major * 100)
}

// Major returns the amount in whole naira, truncating kobo.
func (a Amount) Major() int64 {
	return int64(a) / 100
}

// String formats the amount as naira with two decimals.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sNGN %d.%02d", sign, v/100, v%100)
}

// PricingEntry is a configurable price for a (service type, subtype, priority) key.
type PricingEntry struct {
	ID          string
	ServiceType ServiceType
	Subtype     string
	Priority    Priority
	Price       Amount
	Duration    string
	Features    []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PricingSource records where a quote came from.
type PricingSource string

const (
	PricingSourceEntry     PricingSource = "entry"
	PricingSourceBaseTable PricingSource = "base_table"
)

// Quote is the resolved price for an intake.
type Quote struct {
	ServiceType   ServiceType
	Subtype       string
	Priority      Priority
	Price         Amount
	ProcessingFee Amount
	Total         Amount
	Duration      string
	Features      []string
	Source        PricingSource
	EntryID       *string
}
