package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository/memory"
)

type failingLookup struct{}

func (failingLookup) GetActive(context.Context, domain.ServiceType, string, domain.Priority) (*domain.PricingEntry, error) {
	return nil, errors.New("connection reset")
}

func TestResolveBaseTableWithMultiplier(t *testing.T) {
	r := NewResolver(memory.NewStore().Pricing(), nil)

	quote, err := r.Resolve(context.Background(), domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(50000), quote.Price)
	assert.Equal(t, domain.NGN(50000), quote.Total)
	assert.Equal(t, domain.PricingSourceBaseTable, quote.Source)
	assert.Nil(t, quote.EntryID)

	quote, err = r.Resolve(context.Background(), domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityExpress)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(37500), quote.Price)
}

func TestResolveActiveEntryWinsUnscaled(t *testing.T) {
	store := memory.NewStore()
	entry := &domain.PricingEntry{
		ServiceType: domain.ServiceTypeDueDiligence,
		Subtype:     "individual",
		Priority:    domain.PriorityExpress,
		Price:       domain.NGN(15000),
		Duration:    "3-5 business days",
		Features:    []string{"Identity verification"},
	}
	require.NoError(t, store.Pricing().Create(context.Background(), entry))

	quote, err := NewResolver(store.Pricing(), nil).Resolve(context.Background(), domain.ServiceTypeDueDiligence, "individual", domain.PriorityExpress)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(15000), quote.Price)
	assert.Equal(t, domain.NGN(5000), quote.ProcessingFee)
	assert.Equal(t, domain.NGN(20000), quote.Total)
	assert.Equal(t, domain.PricingSourceEntry, quote.Source)
	require.NotNil(t, quote.EntryID)
	assert.Equal(t, entry.ID, *quote.EntryID)
	assert.Equal(t, []string{"Identity verification"}, quote.Features)
}

func TestResolveUnavailable(t *testing.T) {
	r := NewResolver(memory.NewStore().Pricing(), nil)

	_, err := r.Resolve(context.Background(), domain.ServiceTypeIPProtection, "plant_variety", domain.PriorityStandard)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = r.Resolve(context.Background(), "notary", "anything", domain.PriorityStandard)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = r.Resolve(context.Background(), domain.ServiceTypeIPProtection, "patent", "overnight")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "unknown priority", unavailable.Reason)
}

func TestResolveLookupFailureIsNotUnavailable(t *testing.T) {
	_, err := NewResolver(failingLookup{}, nil).Resolve(context.Background(), domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityStandard)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

func TestApplyMultiplierRoundsHalfUp(t *testing.T) {
	got, err := ApplyMultiplier(domain.Amount(101), domain.PriorityExpress)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(152), got)

	_, err = ApplyMultiplier(domain.Amount(100), "overnight")
	assert.Error(t, err)
}
