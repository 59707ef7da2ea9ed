package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
)

const missingMarker = "-"

var errStaleGeneration = errors.New("pricing cache generation changed")

// CachedLookup is a best-effort redis read-through cache in front of an EntryLookup.
// Redis failures are logged and the underlying source is consulted directly.
type CachedLookup struct {
	next   EntryLookup
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLookup wraps next. A nil client or non-positive ttl disables caching.
func NewCachedLookup(next EntryLookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{next: next, client: client, ttl: ttl, logger: logger}
}

// CacheKey returns the redis key used for a pricing key.
func CacheKey(serviceType domain.ServiceType, subtype string, priority domain.Priority) string {
	return fmt.Sprintf("pricing:%s:%s:%s", serviceType, subtype, priority)
}

type cachedEntry struct {
	ID          string   `json:"id"`
	ServiceType string   `json:"service_type"`
	Subtype     string   `json:"subtype"`
	Priority    string   `json:"priority"`
	Price       int64    `json:"price"`
	Duration    string   `json:"duration"`
	Features    []string `json:"features"`
}

func (c *CachedLookup) enabled() bool {
	return c.client != nil && c.ttl > 0
}

// GetActive implements EntryLookup.
func (c *CachedLookup) GetActive(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error) {
	if !c.enabled() {
		return c.next.GetActive(ctx, serviceType, subtype, priority)
	}
	key := CacheKey(serviceType, subtype, priority)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missingMarker {
			return nil, repository.ErrNotFound
		}
		var cached cachedEntry
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached.toDomain(), nil
		}
		c.logger.Warn("discarding malformed pricing cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("pricing cache read failed", zap.String("key", key), zap.Error(err))
		return c.next.GetActive(ctx, serviceType, subtype, priority)
	}

	// The generation read before loading guards the write below against an
	// invalidation that lands in between.
	generation, err := c.client.Get(ctx, generationKey(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("pricing cache generation read failed", zap.String("key", key), zap.Error(err))
		return c.next.GetActive(ctx, serviceType, subtype, priority)
	}

	entry, err := c.next.GetActive(ctx, serviceType, subtype, priority)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.store(ctx, key, generation, missingMarker)
		}
		return nil, err
	}
	payload, jsonErr := json.Marshal(fromDomain(entry))
	if jsonErr == nil {
		c.store(ctx, key, generation, string(payload))
	}
	return entry, nil
}

// Invalidate drops the cached value for a key after an admin write.
func (c *CachedLookup) Invalidate(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) {
	if !c.enabled() {
		return
	}
	key := CacheKey(serviceType, subtype, priority)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Warn("pricing cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// store writes value only while the key's generation still equals generation.
func (c *CachedLookup) store(ctx context.Context, key, generation, value string) {
	genKey := generationKey(key)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("pricing cache write skipped after invalidation", zap.String("key", key))
	default:
		c.logger.Warn("pricing cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func generationKey(key string) string {
	return key + ":gen"
}

func fromDomain(entry *domain.PricingEntry) cachedEntry {
	return cachedEntry{
		ID:          entry.ID,
		ServiceType: string(entry.ServiceType),
		Subtype:     entry.Subtype,
		Priority:    string(entry.Priority),
		Price:       int64(entry.Price),
		Duration:    entry.Duration,
		Features:    entry.Features,
	}
}

func (e cachedEntry) toDomain() *domain.PricingEntry {
	return &domain.PricingEntry{
		ID:          e.ID,
		ServiceType: domain.ServiceType(e.ServiceType),
		Subtype:     e.Subtype,
		Priority:    domain.Priority(e.Priority),
		Price:       domain.Amount(e.Price),
		Duration:    e.Duration,
		Features:    e.Features,
		Active:      true,
	}
}
