package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/dto"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

// PricingHandler serves quotes and pricing administration.
type PricingHandler struct {
	pricing *service.PricingService
}

// NewPricingHandler constructs handler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricingService}
}

// Quote GET /quote?service_type=&subtype=&priority=.
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	serviceType := domain.ServiceType(c.Query("service_type"))
	subtype := c.Query("subtype")
	if serviceType == "" || subtype == "" {
		return apperrors.NewValidationError("service_type and subtype required", nil)
	}
	priority := domain.Priority(c.Query("priority"))
	if priority != "" && !priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	quote, err := h.pricing.Quote(c.UserContext(), serviceType, subtype, priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": quoteResponse(quote)})
}

// ListEntries GET /admin/pricing.
func (h *PricingHandler) ListEntries(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := repository.PricingFilter{IncludeInactive: c.QueryBool("include_inactive", false)}
	if st := c.Query("service_type"); st != "" {
		serviceType := domain.ServiceType(st)
		filter.ServiceType = &serviceType
	}
	entries, err := h.pricing.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.PricingEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, pricingEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateEntry POST /admin/pricing.
func (h *PricingHandler) CreateEntry(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PricingEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.pricing.Create(c.UserContext(), principal, pricingInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": pricingEntryResponse(entry)})
}

// ReplaceEntry PUT /admin/pricing.
func (h *PricingHandler) ReplaceEntry(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PricingEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, previous, err := h.pricing.Replace(c.UserContext(), principal, pricingInput(req))
	if err != nil {
		return err
	}
	resp := dto.ReplacePricingResponse{Entry: pricingEntryResponse(entry)}
	if previous != nil {
		prev := pricingEntryResponse(previous)
		resp.Previous = &prev
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DeactivateEntry DELETE /admin/pricing/:id.
func (h *PricingHandler) DeactivateEntry(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	entry, err := h.pricing.Deactivate(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pricingEntryResponse(entry)})
}

func pricingInput(req dto.PricingEntryRequest) service.PricingEntryInput {
	return service.PricingEntryInput{
		ServiceType: req.ServiceType,
		Subtype:     req.Subtype,
		Priority:    req.Priority,
		Price:       domain.Amount(req.Price),
		Duration:    req.Duration,
		Features:    req.Features,
	}
}

func pricingEntryResponse(entry *domain.PricingEntry) dto.PricingEntryResponse {
	features := entry.Features
	if features == nil {
		features = []string{}
	}
	return dto.PricingEntryResponse{
		ID:          entry.ID,
		ServiceType: entry.ServiceType,
		Subtype:     entry.Subtype,
		Priority:    entry.Priority,
		Price:       money(entry.Price),
		Duration:    entry.Duration,
		Features:    features,
		Active:      entry.Active,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

func quoteResponse(q domain.Quote) dto.QuoteResponse {
	features := q.Features
	if features == nil {
		features = []string{}
	}
	return dto.QuoteResponse{
		ServiceType:   q.ServiceType,
		Subtype:       q.Subtype,
		Priority:      q.Priority,
		Price:         money(q.Price),
		ProcessingFee: money(q.ProcessingFee),
		Total:         money(q.Total),
		Duration:      q.Duration,
		Features:      features,
		Source:        q.Source,
		EntryID:       q.EntryID,
	}
}
