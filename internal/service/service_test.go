package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/events"
	"github.com/peterfiasco/easylawBe-sub000/internal/pricing"
	"github.com/peterfiasco/easylawBe-sub000/internal/refno"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository/memory"
)

var (
	testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	owner   = domain.Principal{ID: "user-1", Role: domain.RoleUser}
	other   = domain.Principal{ID: "user-2", Role: domain.RoleUser}
	admin   = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store      *memory.Store
	dispatcher events.Dispatcher
	recorded   *recordedEvents
	requests   *RequestService
	pricing    *PricingService
}

type harnessOption func(*RequestDependencies)

func withReferences(g refno.Generator) harnessOption {
	return func(d *RequestDependencies) { d.References = g }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	for _, et := range events.AllEventTypes() {
		dispatcher.Subscribe(et, recorded.handle)
	}
	resolver := pricing.NewResolver(store.Pricing(), nil)
	clock := func() time.Time { return testNow }
	deps := RequestDependencies{
		RequestRepo: store.Requests(),
		NoteRepo:    store.Notes(),
		Documents: NewDocumentService(DocumentDependencies{
			DocumentRepo: store.Documents(),
			MaxBytes:     1024,
		}),
		Pricing:    resolver,
		Dispatcher: dispatcher,
		Clock:      clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &harness{
		store:      store,
		dispatcher: dispatcher,
		recorded:   recorded,
		requests:   NewRequestService(deps),
		pricing: NewPricingService(PricingDependencies{
			PricingRepo: store.Pricing(),
			Resolver:    resolver,
			Clock:       clock,
		}),
	}
}

func (h *harness) createBR(t *testing.T) *domain.ServiceRequest {
	t.Helper()
	req, err := h.requests.Create(context.Background(), owner, CreateRequestInput{
		ServiceType: domain.ServiceTypeBusinessRegistration,
		Details: map[string]string{
			"business_name":    "Acme Ventures",
			"business_type":    "incorporation",
			"business_address": "12 Broad Street, Lagos",
		},
	})
	require.NoError(t, err)
	return req
}

func (h *harness) createDD(t *testing.T) *domain.ServiceRequest {
	t.Helper()
	req, err := h.requests.Create(context.Background(), owner, CreateRequestInput{
		ServiceType: domain.ServiceTypeDueDiligence,
		Subtype:     "individual",
		Details: map[string]string{
			"subject_name":  "Jane Doe",
			"scope":         "Identity and litigation history",
			"contact_email": "jane@example.com",
		},
	})
	require.NoError(t, err)
	return req
}

// sequenceGenerator hands out fixed reference numbers in order.
type sequenceGenerator struct {
	mu   sync.Mutex
	refs []string
}

func (g *sequenceGenerator) Generate(prefix string, _ time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.refs) == 0 {
		return "", errors.New("sequence exhausted")
	}
	ref := g.refs[0]
	g.refs = g.refs[1:]
	return fmt.Sprintf("%s%s", prefix, ref), nil
}
