package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/dto"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/report"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves operator-only request endpoints.
type AdminHandler struct {
	requests *service.RequestService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAdminHandler constructs handler.
func NewAdminHandler(requestService *service.RequestService, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{requests: requestService, logger: logger, now: time.Now}
}

// TransitionStatus POST /admin/requests/:reference/status.
func (h *AdminHandler) TransitionStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	updated, err := h.requests.TransitionStatus(c.UserContext(), principal, c.Params("reference"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(updated)})
}

// RecordPayment POST /admin/requests/:reference/payments.
func (h *AdminHandler) RecordPayment(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.requests.RecordPayment(c.UserContext(), principal, c.Params("reference"), domain.Amount(req.Amount))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(updated)})
}

// ExportRequests GET /admin/requests/export. Accepts the same filters as the
// list endpoint and returns an xlsx workbook.
func (h *AdminHandler) ExportRequests(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	requests, err := h.requests.List(c.UserContext(), principal, parseRequestQuery(c, 200))
	if err != nil {
		return err
	}
	body, err := report.RequestsWorkbook(requests)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	h.logger.Info("requests exported", zap.String("admin_id", principal.ID), zap.Int("rows", len(requests)))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "service-requests-"+h.now().UTC().Format("20060102-150405")+".xlsx"))
	return c.Send(body)
}
