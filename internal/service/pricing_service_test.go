package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

type invalidationRecorder struct {
	keys []string
}

func (r *invalidationRecorder) Invalidate(_ context.Context, st domain.ServiceType, subtype string, p domain.Priority) {
	r.keys = append(r.keys, string(st)+"/"+subtype+"/"+string(p))
}

func trademarkEntry(price int64) PricingEntryInput {
	return PricingEntryInput{
		ServiceType: domain.ServiceTypeIPProtection,
		Subtype:     "trademark",
		Priority:    domain.PriorityStandard,
		Price:       domain.NGN(price),
		Duration:    "90 days",
		Features:    []string{" Search report ", ""},
	}
}

func TestPricingAdminOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.pricing.Create(ctx, owner, trademarkEntry(50000))
	assert.Equal(t, apperrors.CodeForbidden, domainErr(t, err).Code)
	_, err = h.pricing.List(ctx, owner, repository.PricingFilter{})
	assert.Equal(t, apperrors.CodeForbidden, domainErr(t, err).Code)
}

func TestPricingCreateValidatesAndRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.pricing.Create(ctx, admin, PricingEntryInput{ServiceType: "notary", Priority: "x"})
	de := domainErr(t, err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "service_type")
	assert.Contains(t, de.Details, "subtype")
	assert.Contains(t, de.Details, "priority")
	assert.Contains(t, de.Details, "price")

	entry, err := h.pricing.Create(ctx, admin, trademarkEntry(50000))
	require.NoError(t, err)
	assert.True(t, entry.Active)
	assert.Equal(t, []string{"Search report"}, entry.Features)

	_, err = h.pricing.Create(ctx, admin, trademarkEntry(60000))
	assert.Equal(t, apperrors.CodeConflict, domainErr(t, err).Code)
}

func TestReplaceLeavesExistingRequestsAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cache := &invalidationRecorder{}
	h.pricing.cache = cache

	_, err := h.pricing.Create(ctx, admin, trademarkEntry(50000))
	require.NoError(t, err)

	intake := CreateRequestInput{
		ServiceType: domain.ServiceTypeIPProtection,
		Details: map[string]string{
			"protection_type":     "trademark",
			"application_details": "Word mark ACME",
			"applicant_info":      "Acme Ltd",
		},
	}
	before, err := h.requests.Create(ctx, owner, intake)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(50000), before.TotalAmount)

	entry, previous, err := h.pricing.Replace(ctx, admin, trademarkEntry(65000))
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.False(t, previous.Active)
	assert.True(t, entry.Active)

	reloaded, err := h.requests.Get(ctx, owner, before.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(50000), reloaded.TotalAmount)

	after, err := h.requests.Create(ctx, owner, intake)
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(65000), after.TotalAmount)

	assert.Equal(t, []string{"ip_protection/trademark/standard", "ip_protection/trademark/standard"}, cache.keys)
}

func TestDeactivateFallsBackToBaseTable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.pricing.Create(ctx, admin, trademarkEntry(65000))
	require.NoError(t, err)

	quote, err := h.pricing.Quote(ctx, domain.ServiceTypeIPProtection, "trademark", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PricingSourceEntry, quote.Source)

	_, err = h.pricing.Deactivate(ctx, admin, entry.ID)
	require.NoError(t, err)

	quote, err = h.pricing.Quote(ctx, domain.ServiceTypeIPProtection, "trademark", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, domain.PricingSourceBaseTable, quote.Source)
	assert.Equal(t, domain.NGN(50000), quote.Total)

	_, err = h.pricing.Deactivate(ctx, admin, "nope")
	assert.Equal(t, apperrors.CodeNotFound, domainErr(t, err).Code)

	entries, err := h.pricing.List(ctx, admin, repository.PricingFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = h.pricing.Quote(ctx, domain.ServiceTypeIPProtection, "plant_variety", domain.PriorityStandard)
	assert.Equal(t, apperrors.CodePricingUnavailable, domainErr(t, err).Code)
}
