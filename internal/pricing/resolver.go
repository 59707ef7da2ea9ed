// Package pricing resolves the amount charged for a service request at intake.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/peterfiasco/easylawBe-sub000/internal/catalog"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
)

// ErrUnavailable is matched by every UnavailableError.
var ErrUnavailable = errors.New("pricing unavailable")

// UnavailableError reports a key with neither an active entry nor a base price.
type UnavailableError struct {
	ServiceType domain.ServiceType
	Subtype     string
	Priority    domain.Priority
	Reason      string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("pricing unavailable for %s/%s/%s: %s", e.ServiceType, e.Subtype, e.Priority, e.Reason)
}

// Is lets errors.Is match ErrUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// EntryLookup reads the active pricing entry for a key.
// Implementations return repository.ErrNotFound when no active entry exists.
type EntryLookup interface {
	GetActive(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error)
}

var multipliers = map[domain.Priority]decimal.Decimal{
	domain.PriorityStandard: decimal.NewFromInt(1),
	domain.PriorityExpress:  decimal.RequireFromString("1.5"),
	domain.PriorityUrgent:   decimal.NewFromInt(2),
}

// Multiplier returns the fixed price multiplier for a priority tier.
func Multiplier(priority domain.Priority) (decimal.Decimal, bool) {
	m, ok := multipliers[priority]
	return m, ok
}

// ApplyMultiplier scales base by the tier multiplier, rounding half-up to a whole minor unit.
func ApplyMultiplier(base domain.Amount, priority domain.Priority) (domain.Amount, error) {
	m, ok := Multiplier(priority)
	if !ok {
		return 0, fmt.Errorf("unknown priority %q", priority)
	}
	// Amounts are non-negative, so away-from-zero rounding is half-up.
	scaled := decimal.NewFromInt(int64(base)).Mul(m).Round(0)
	return domain.Amount(scaled.IntPart()), nil
}

// Resolver computes quotes from active entries, falling back to base tables.
type Resolver struct {
	entries EntryLookup
	metrics *observability.Metrics
}

// NewResolver builds a resolver over the given entry source.
func NewResolver(entries EntryLookup, metrics *observability.Metrics) *Resolver {
	return &Resolver{entries: entries, metrics: metrics}
}

// Resolve returns the quote for (serviceType, subtype, priority).
// The order is: active entry, then base price times priority multiplier, then UnavailableError.
func (r *Resolver) Resolve(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (domain.Quote, error) {
	desc, ok := catalog.Lookup(serviceType)
	if !ok {
		return domain.Quote{}, &UnavailableError{ServiceType: serviceType, Subtype: subtype, Priority: priority, Reason: "unknown service type"}
	}
	if !priority.Valid() {
		return domain.Quote{}, &UnavailableError{ServiceType: serviceType, Subtype: subtype, Priority: priority, Reason: "unknown priority"}
	}

	quote := domain.Quote{
		ServiceType:   serviceType,
		Subtype:       subtype,
		Priority:      priority,
		ProcessingFee: desc.ProcessingFee,
	}

	if r.entries != nil {
		entry, err := r.entries.GetActive(ctx, serviceType, subtype, priority)
		switch {
		case err == nil && entry != nil && entry.Active:
			id := entry.ID
			quote.Price = entry.Price
			quote.Duration = entry.Duration
			quote.Features = append([]string(nil), entry.Features...)
			quote.Source = domain.PricingSourceEntry
			quote.EntryID = &id
			quote.Total = quote.Price + quote.ProcessingFee
			r.metrics.PricingResolved(string(quote.Source))
			return quote, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return domain.Quote{}, fmt.Errorf("lookup pricing entry: %w", err)
		}
	}

	base, ok := desc.BasePrices[subtype]
	if !ok {
		r.metrics.PricingResolved("unavailable")
		return domain.Quote{}, &UnavailableError{ServiceType: serviceType, Subtype: subtype, Priority: priority, Reason: "no active entry and no base price"}
	}
	price, err := ApplyMultiplier(base, priority)
	if err != nil {
		return domain.Quote{}, &UnavailableError{ServiceType: serviceType, Subtype: subtype, Priority: priority, Reason: err.Error()}
	}
	quote.Price = price
	quote.Duration = desc.BaseDurations[subtype]
	quote.Source = domain.PricingSourceBaseTable
	quote.Total = quote.Price + quote.ProcessingFee
	r.metrics.PricingResolved(string(quote.Source))
	return quote, nil
}
