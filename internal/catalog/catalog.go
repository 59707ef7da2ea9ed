// Package catalog holds the per-service-type descriptors that parameterize
// pricing, SLA estimation, intake validation and the status graph.
package catalog

import (
	"sort"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// Descriptor captures everything that differs between service domains.
type Descriptor struct {
	ServiceType domain.ServiceType
	// Prefix starts every reference number issued for this domain.
	Prefix string
	// SubtypeField names the intake detail that carries the subtype when the
	// caller does not pass one explicitly.
	SubtypeField string
	// RequiredFields maps intake detail keys to validator rules.
	RequiredFields map[string]string
	BasePrices     map[string]domain.Amount
	BaseDurations  map[string]string
	SLADays        map[string]map[domain.Priority]int
	DefaultSLADays int
	ProcessingFee  domain.Amount
	Transitions    map[domain.RequestStatus][]domain.RequestStatus
}

// CanTransition reports whether next is a legal successor of current.
func (d Descriptor) CanTransition(current, next domain.RequestStatus) bool {
	for _, candidate := range d.Transitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Successors returns the statuses reachable from current in one step.
func (d Descriptor) Successors(current domain.RequestStatus) []domain.RequestStatus {
	return append([]domain.RequestStatus(nil), d.Transitions[current]...)
}

// KnownStatus reports whether status appears anywhere in the domain's graph.
func (d Descriptor) KnownStatus(status domain.RequestStatus) bool {
	if _, ok := d.Transitions[status]; ok {
		return true
	}
	return false
}

// Subtypes lists the subtypes with a static base price, sorted.
func (d Descriptor) Subtypes() []string {
	out := make([]string, 0, len(d.BasePrices))
	for subtype := range d.BasePrices {
		out = append(out, subtype)
	}
	sort.Strings(out)
	return out
}

var descriptors = map[domain.ServiceType]Descriptor{
	domain.ServiceTypeBusinessRegistration: businessRegistration,
	domain.ServiceTypeDueDiligence:         dueDiligence,
	domain.ServiceTypeIPProtection:         ipProtection,
	domain.ServiceTypeBusinessService:      businessService,
}

// Lookup returns the descriptor for a service type.
func Lookup(serviceType domain.ServiceType) (Descriptor, bool) {
	d, ok := descriptors[serviceType]
	return d, ok
}

// All returns every descriptor ordered by service type.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceType < out[j].ServiceType })
	return out
}
