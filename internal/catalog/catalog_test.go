package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

func TestLookupCoversEveryServiceType(t *testing.T) {
	prefixes := map[domain.ServiceType]string{
		domain.ServiceTypeBusinessRegistration: "BR",
		domain.ServiceTypeDueDiligence:         "DD",
		domain.ServiceTypeIPProtection:         "IP",
		domain.ServiceTypeBusinessService:      "BS",
	}
	for st, prefix := range prefixes {
		desc, ok := Lookup(st)
		require.True(t, ok, st)
		assert.Equal(t, prefix, desc.Prefix)
		assert.Contains(t, desc.RequiredFields, desc.SubtypeField)
	}
	_, ok := Lookup("notary")
	assert.False(t, ok)
	assert.Len(t, All(), 4)
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, desc := range All() {
		assert.Empty(t, desc.Successors(domain.StatusCompleted), desc.ServiceType)
		assert.Empty(t, desc.Successors(domain.StatusCancelled), desc.ServiceType)
		assert.True(t, desc.KnownStatus(domain.StatusSubmitted))
	}
}

func TestTransitionGraphs(t *testing.T) {
	br, _ := Lookup(domain.ServiceTypeBusinessRegistration)
	assert.True(t, br.CanTransition(domain.StatusSubmitted, domain.StatusProcessing))
	assert.True(t, br.CanTransition(domain.StatusUnderReview, domain.StatusCompleted))
	assert.False(t, br.CanTransition(domain.StatusSubmitted, domain.StatusCompleted))
	assert.False(t, br.CanTransition(domain.StatusCompleted, domain.StatusProcessing))

	dd, _ := Lookup(domain.ServiceTypeDueDiligence)
	assert.False(t, dd.KnownStatus(domain.StatusUnderReview))
	assert.True(t, dd.CanTransition(domain.StatusProcessing, domain.StatusCompleted))
	assert.Equal(t, domain.NGN(5000), dd.ProcessingFee)
}

func TestSubtypesSorted(t *testing.T) {
	ip, _ := Lookup(domain.ServiceTypeIPProtection)
	assert.Equal(t, []string{"copyright", "industrial_design", "patent", "trademark"}, ip.Subtypes())
}
