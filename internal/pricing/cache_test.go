package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
)

type countingLookup struct {
	entry *domain.PricingEntry
	calls int
}

func (c *countingLookup) GetActive(context.Context, domain.ServiceType, string, domain.Priority) (*domain.PricingEntry, error) {
	c.calls++
	if c.entry == nil {
		return nil, repository.ErrNotFound
	}
	copied := *c.entry
	return &copied, nil
}

func newCache(t *testing.T, next EntryLookup) (*CachedLookup, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedLookup(next, client, time.Minute, nil), mr
}

func TestCachedLookupReadThrough(t *testing.T) {
	next := &countingLookup{entry: &domain.PricingEntry{
		ID: "entry-1", ServiceType: domain.ServiceTypeBusinessService, Subtype: "legal_advisory",
		Priority: domain.PriorityStandard, Price: domain.NGN(22000), Active: true,
	}}
	cache, mr := newCache(t, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry, err := cache.GetActive(ctx, domain.ServiceTypeBusinessService, "legal_advisory", domain.PriorityStandard)
		require.NoError(t, err)
		assert.Equal(t, domain.NGN(22000), entry.Price)
		assert.True(t, entry.Active)
	}
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists(CacheKey(domain.ServiceTypeBusinessService, "legal_advisory", domain.PriorityStandard)))

	cache.Invalidate(ctx, domain.ServiceTypeBusinessService, "legal_advisory", domain.PriorityStandard)
	_, err := cache.GetActive(ctx, domain.ServiceTypeBusinessService, "legal_advisory", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

type invalidatingLookup struct {
	countingLookup
	during func()
}

func (l *invalidatingLookup) GetActive(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error) {
	entry, err := l.countingLookup.GetActive(ctx, serviceType, subtype, priority)
	if l.during != nil {
		during := l.during
		l.during = nil
		during()
	}
	return entry, err
}

func TestCachedLookupSkipsWriteAfterConcurrentInvalidation(t *testing.T) {
	next := &invalidatingLookup{countingLookup: countingLookup{entry: &domain.PricingEntry{
		ID: "entry-old", ServiceType: domain.ServiceTypeBusinessRegistration, Subtype: "incorporation",
		Priority: domain.PriorityStandard, Price: domain.NGN(25000), Active: true,
	}}}
	cache, mr := newCache(t, next)
	ctx := context.Background()
	key := CacheKey(domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityStandard)

	next.during = func() {
		next.entry = &domain.PricingEntry{
			ID: "entry-new", ServiceType: domain.ServiceTypeBusinessRegistration, Subtype: "incorporation",
			Priority: domain.PriorityStandard, Price: domain.NGN(30000), Active: true,
		}
		cache.Invalidate(ctx, domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityStandard)
	}
	stale, err := cache.GetActive(ctx, domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, "entry-old", stale.ID)
	assert.False(t, mr.Exists(key))

	fresh, err := cache.GetActive(ctx, domain.ServiceTypeBusinessRegistration, "incorporation", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, "entry-new", fresh.ID)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 2, next.calls)
}

func TestCachedLookupRemembersMisses(t *testing.T) {
	next := &countingLookup{}
	cache, _ := newCache(t, next)
	ctx := context.Background()

	_, err := cache.GetActive(ctx, domain.ServiceTypeDueDiligence, "property", domain.PriorityUrgent)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = cache.GetActive(ctx, domain.ServiceTypeDueDiligence, "property", domain.PriorityUrgent)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, next.calls)
}

func TestCachedLookupFallsThroughWhenRedisDown(t *testing.T) {
	next := &countingLookup{entry: &domain.PricingEntry{ID: "entry-2", Price: domain.NGN(1000), Active: true}}
	cache, mr := newCache(t, next)
	mr.Close()

	entry, err := cache.GetActive(context.Background(), domain.ServiceTypeIPProtection, "patent", domain.PriorityStandard)
	require.NoError(t, err)
	assert.Equal(t, "entry-2", entry.ID)
}

func TestCachedLookupDisabled(t *testing.T) {
	next := &countingLookup{entry: &domain.PricingEntry{ID: "entry-3", Active: true}}
	cache := NewCachedLookup(next, nil, time.Minute, nil)
	_, _ = cache.GetActive(context.Background(), domain.ServiceTypeIPProtection, "patent", domain.PriorityStandard)
	_, _ = cache.GetActive(context.Background(), domain.ServiceTypeIPProtection, "patent", domain.PriorityStandard)
	assert.Equal(t, 2, next.calls)
	cache.Invalidate(context.Background(), domain.ServiceTypeIPProtection, "patent", domain.PriorityStandard)
}
