package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/catalog"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/pricing"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

// CacheInvalidator drops cached pricing for a key.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority)
}

// PricingService administers pricing entries and serves quotes.
type PricingService struct {
	entries  repository.PricingRepository
	resolver PriceResolver
	cache    CacheInvalidator
	logger   *zap.Logger
	now      func() time.Time
}

// PricingDependencies bundles collaborators for PricingService.
type PricingDependencies struct {
	PricingRepo repository.PricingRepository
	Resolver    PriceResolver
	Cache       CacheInvalidator
	Logger      *zap.Logger
	Clock       func() time.Time
}

// PricingEntryInput describes a new pricing entry.
type PricingEntryInput struct {
	ServiceType domain.ServiceType
	Subtype     string
	Priority    domain.Priority
	Price       domain.Amount
	Duration    string
	Features    []string
}

// NewPricingService constructs the service.
func NewPricingService(deps PricingDependencies) *PricingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &PricingService{
		entries:  deps.PricingRepo,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		logger:   logger,
		now:      clock,
	}
}

// Quote resolves the price a new request would be charged right now.
func (s *PricingService) Quote(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (domain.Quote, error) {
	if priority == "" {
		priority = domain.PriorityStandard
	}
	quote, err := s.resolver.Resolve(ctx, serviceType, strings.TrimSpace(subtype), priority)
	if err != nil {
		if errors.Is(err, pricing.ErrUnavailable) {
			return domain.Quote{}, apperrors.NewPricingUnavailable(err, map[string]any{
				"service_type": serviceType,
				"subtype":      subtype,
				"priority":     priority,
			})
		}
		return domain.Quote{}, apperrors.NewUpstream("pricing", err)
	}
	return quote, nil
}

// List returns pricing entries. Admin only.
func (s *PricingService) List(ctx context.Context, principal domain.Principal, filter repository.PricingFilter) ([]domain.PricingEntry, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators may manage pricing")
	}
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list pricing entries: %w", err)
	}
	if entries == nil {
		entries = []domain.PricingEntry{}
	}
	return entries, nil
}

// Create adds an active entry for a key that has none.
func (s *PricingService) Create(ctx context.Context, principal domain.Principal, input PricingEntryInput) (*domain.PricingEntry, error) {
	entry, err := s.prepare(principal, input)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicatePricingKey) {
			return nil, apperrors.NewConflict("an active pricing entry already exists for this key", pricingKeyDetails(entry))
		}
		return nil, fmt.Errorf("create pricing entry: %w", err)
	}
	s.invalidate(ctx, entry)
	s.logger.Info("pricing entry created",
		zap.String("entry_id", entry.ID),
		zap.String("service_type", string(entry.ServiceType)),
		zap.String("subtype", entry.Subtype),
		zap.String("priority", string(entry.Priority)),
		zap.Int64("price", int64(entry.Price)))
	return entry, nil
}

// Replace supersedes the active entry for the key, if any. Requests already
// created keep the amount they were priced at.
func (s *PricingService) Replace(ctx context.Context, principal domain.Principal, input PricingEntryInput) (*domain.PricingEntry, *domain.PricingEntry, error) {
	entry, err := s.prepare(principal, input)
	if err != nil {
		return nil, nil, err
	}
	previous, err := s.entries.Replace(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePricingKey) {
			return nil, nil, apperrors.NewConflict("pricing entry changed concurrently", pricingKeyDetails(entry))
		}
		return nil, nil, fmt.Errorf("replace pricing entry: %w", err)
	}
	s.invalidate(ctx, entry)
	fields := []zap.Field{
		zap.String("entry_id", entry.ID),
		zap.String("service_type", string(entry.ServiceType)),
		zap.String("subtype", entry.Subtype),
		zap.String("priority", string(entry.Priority)),
	}
	if previous != nil {
		fields = append(fields, zap.String("previous_entry_id", previous.ID))
	}
	s.logger.Info("pricing entry replaced", fields...)
	return entry, previous, nil
}

// Deactivate retires an entry. New requests for its key fall back to the base table.
func (s *PricingService) Deactivate(ctx context.Context, principal domain.Principal, id string) (*domain.PricingEntry, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators may manage pricing")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("pricing entry", map[string]any{"id": id})
	}
	entry, err := s.entries.Deactivate(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("pricing entry", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("deactivate pricing entry: %w", err)
	}
	s.invalidate(ctx, entry)
	s.logger.Info("pricing entry deactivated", zap.String("entry_id", entry.ID))
	return entry, nil
}

func (s *PricingService) prepare(principal domain.Principal, input PricingEntryInput) (*domain.PricingEntry, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators may manage pricing")
	}
	fields := map[string]any{}
	if _, ok := catalog.Lookup(input.ServiceType); !ok {
		fields["service_type"] = "is not a known service type"
	}
	subtype := strings.TrimSpace(input.Subtype)
	if subtype == "" {
		fields["subtype"] = "is required"
	}
	if !input.Priority.Valid() {
		fields["priority"] = "must be one of standard, express, urgent"
	}
	if input.Price <= 0 {
		fields["price"] = "must be positive"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid pricing entry", fields)
	}

	features := make([]string, 0, len(input.Features))
	for _, f := range input.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return &domain.PricingEntry{
		ServiceType: input.ServiceType,
		Subtype:     subtype,
		Priority:    input.Priority,
		Price:       input.Price,
		Duration:    strings.TrimSpace(input.Duration),
		Features:    features,
	}, nil
}

func (s *PricingService) invalidate(ctx context.Context, entry *domain.PricingEntry) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, entry.ServiceType, entry.Subtype, entry.Priority)
	}
}

func pricingKeyDetails(entry *domain.PricingEntry) map[string]any {
	return map[string]any{
		"service_type": entry.ServiceType,
		"subtype":      entry.Subtype,
		"priority":     entry.Priority,
	}
}
