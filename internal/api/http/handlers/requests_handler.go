package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/dto"
	"github.com/peterfiasco/easylawBe-sub000/internal/auth"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

// RequestsHandler serves the request lifecycle endpoints shared by owners and admins.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceType == "" {
		return apperrors.NewValidationError("service_type required", nil)
	}
	created, err := h.service.Create(c.UserContext(), principal, service.CreateRequestInput{
		ServiceType: req.ServiceType,
		Subtype:     req.Subtype,
		Priority:    req.Priority,
		Details:     req.Details,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestDetail(created)})
}

// ListRequests GET /requests. Non-admins only ever see their own requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	requests, err := h.service.List(c.UserContext(), principal, parseRequestQuery(c, 20))
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /requests/:reference.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), principal, c.Params("reference"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(req)})
}

// UpdateRequest PATCH /requests/:reference.
func (h *RequestsHandler) UpdateRequest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.Update(c.UserContext(), principal, c.Params("reference"), req.Details)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(updated)})
}

// CancelRequest POST /requests/:reference/cancel.
func (h *RequestsHandler) CancelRequest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	cancelled, err := h.service.Cancel(c.UserContext(), principal, c.Params("reference"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(cancelled)})
}

// AddNote POST /requests/:reference/notes.
func (h *RequestsHandler) AddNote(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("message required", nil)
	}
	note, err := h.service.AddNote(c.UserContext(), principal, c.Params("reference"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// AddDocument POST /requests/:reference/documents. Accepts a multipart "file"
// field or a JSON body with base64 content.
func (h *RequestsHandler) AddDocument(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	upload, err := parseUpload(c)
	if err != nil {
		return err
	}
	doc, err := h.service.AddDocument(c.UserContext(), principal, c.Params("reference"), upload)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": documentResponse(doc)})
}

// DownloadDocument GET /requests/:reference/documents/:documentID.
func (h *RequestsHandler) DownloadDocument(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	doc, err := h.service.GetDocument(c.UserContext(), principal, c.Params("reference"), c.Params("documentID"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, doc.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Set("X-Checksum-Blake2b", doc.Checksum)
	return c.Send(doc.Content)
}

func requirePrincipal(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func parseUpload(c *fiber.Ctx) (service.DocumentUpload, error) {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return service.DocumentUpload{}, apperrors.NewValidationError("file required", nil)
		}
		f, err := fh.Open()
		if err != nil {
			return service.DocumentUpload{}, apperrors.NewValidationError("unreadable file", nil)
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return service.DocumentUpload{}, apperrors.NewValidationError("unreadable file", nil)
		}
		return service.DocumentUpload{
			Name:     fh.Filename,
			MimeType: fh.Header.Get(fiber.HeaderContentType),
			Category: domain.DocumentCategory(c.FormValue("category")),
			Content:  content,
		}, nil
	}
	var req dto.DocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return service.DocumentUpload{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.DocumentUpload{
		Name:     req.Name,
		MimeType: req.MimeType,
		Category: req.Category,
		Content:  req.Content,
	}, nil
}

func parseRequestQuery(c *fiber.Ctx, defaultPageSize int) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if owner := strings.TrimSpace(c.Query("owner_id")); owner != "" {
		filter.OwnerID = &owner
	}
	for _, part := range splitQuery(c.Query("service_type")) {
		filter.ServiceTypes = append(filter.ServiceTypes, domain.ServiceType(part))
	}
	for _, part := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.RequestStatus(part))
	}
	for _, part := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.Priority(part))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func splitQuery(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func money(a domain.Amount) dto.MoneyResponse {
	return dto.MoneyResponse{Minor: int64(a), Currency: "NGN", Display: a.String()}
}

func requestSummary(req *domain.ServiceRequest) dto.RequestSummary {
	return dto.RequestSummary{
		ID:                  req.ID,
		ReferenceNumber:     req.ReferenceNumber,
		OwnerID:             req.OwnerID,
		ServiceType:         req.ServiceType,
		ServiceSubtype:      req.ServiceSubtype,
		Status:              req.Status,
		Priority:            req.Priority,
		TotalAmount:         money(req.TotalAmount),
		PaidAmount:          money(req.PaidAmount),
		PaymentStatus:       req.PaymentStatus,
		EstimatedCompletion: req.EstimatedCompletion,
		ActualCompletion:    req.ActualCompletion,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}
}

func requestDetail(req *domain.ServiceRequest) dto.RequestDetailResponse {
	notes := make([]dto.NoteResponse, 0, len(req.Notes))
	for i := range req.Notes {
		notes = append(notes, noteResponse(&req.Notes[i]))
	}
	docs := make([]dto.DocumentResponse, 0, len(req.Documents))
	for i := range req.Documents {
		docs = append(docs, documentResponse(&req.Documents[i]))
	}
	details := req.Details
	if details == nil {
		details = map[string]string{}
	}
	return dto.RequestDetailResponse{
		RequestSummary: requestSummary(req),
		Details:        details,
		Notes:          notes,
		Documents:      docs,
	}
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		Message:   note.Message,
		AuthorID:  note.AuthorID,
		Origin:    note.Origin,
		CreatedAt: note.CreatedAt,
	}
}

func documentResponse(doc *domain.DocumentAttachment) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		Checksum:   doc.Checksum,
		Category:   doc.Category,
		UploadedBy: doc.UploadedBy,
		UploadedAt: doc.UploadedAt,
	}
}
