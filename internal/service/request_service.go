package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/catalog"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/events"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
	"github.com/peterfiasco/easylawBe-sub000/internal/pricing"
	"github.com/peterfiasco/easylawBe-sub000/internal/refno"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/sla"
	apperrors "github.com/peterfiasco/easylawBe-sub000/pkg/util/errorutil"
)

// PriceResolver quotes a (service type, subtype, priority) key.
type PriceResolver interface {
	Resolve(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (domain.Quote, error)
}

const (
	defaultReferenceAttempts = 3
	maxNoteRunes             = 5000
)

var editableStatuses = []domain.RequestStatus{domain.StatusSubmitted, domain.StatusRequiresAction}

// RequestService drives the service request lifecycle for every service type.
type RequestService struct {
	requests    repository.ServiceRequestRepository
	notes       repository.NoteRepository
	documents   *DocumentService
	pricing     PriceResolver
	references  refno.Generator
	dispatcher  events.Dispatcher
	validate    *validator.Validate
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
	maxAttempts int
}

// RequestDependencies bundles collaborators for RequestService.
type RequestDependencies struct {
	RequestRepo          repository.ServiceRequestRepository
	NoteRepo             repository.NoteRepository
	Documents            *DocumentService
	Pricing              PriceResolver
	References           refno.Generator
	Dispatcher           events.Dispatcher
	Logger               *zap.Logger
	Metrics              *observability.Metrics
	Clock                func() time.Time
	MaxReferenceAttempts int
}

// CreateRequestInput describes an intake.
type CreateRequestInput struct {
	ServiceType domain.ServiceType
	// Subtype overrides the value read from the domain's subtype detail.
	Subtype  string
	Priority domain.Priority
	Details  map[string]string
}

// RequestListFilter describes listing filters. OwnerID is honoured for admins only.
type RequestListFilter struct {
	OwnerID      *string
	ServiceTypes []domain.ServiceType
	Statuses     []domain.RequestStatus
	Priorities   []domain.Priority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	refs := deps.References
	if refs == nil {
		refs = refno.New()
	}
	attempts := deps.MaxReferenceAttempts
	if attempts <= 0 {
		attempts = defaultReferenceAttempts
	}
	return &RequestService{
		requests:    deps.RequestRepo,
		notes:       deps.NoteRepo,
		documents:   deps.Documents,
		pricing:     deps.Pricing,
		references:  refs,
		dispatcher:  deps.Dispatcher,
		validate:    validator.New(),
		logger:      logger,
		metrics:     deps.Metrics,
		now:         clock,
		maxAttempts: attempts,
	}
}

// Create prices, schedules and persists a new request in submitted.
func (s *RequestService) Create(ctx context.Context, principal domain.Principal, input CreateRequestInput) (*domain.ServiceRequest, error) {
	if principal.ID == "" || principal.Role != domain.RoleUser {
		return nil, apperrors.NewForbidden("only users may submit service requests")
	}
	desc, ok := catalog.Lookup(input.ServiceType)
	if !ok {
		return nil, apperrors.NewValidationError("invalid intake", map[string]any{"service_type": "is not a known service type"})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityStandard
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid intake", map[string]any{"priority": "must be one of standard, express, urgent"})
	}

	details := normalizeDetails(input.Details)
	subtype := strings.TrimSpace(input.Subtype)
	if subtype == "" {
		subtype = details[desc.SubtypeField]
	} else if desc.SubtypeField != "" {
		if given, present := details[desc.SubtypeField]; !present {
			details[desc.SubtypeField] = subtype
		} else if given != subtype {
			return nil, apperrors.NewValidationError("invalid intake", map[string]any{
				desc.SubtypeField: fmt.Sprintf("conflicts with subtype %q", subtype),
			})
		}
	}
	if fields := s.validateDetails(ctx, desc, details, true); len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid intake", fields)
	}

	quote, err := s.pricing.Resolve(ctx, desc.ServiceType, subtype, priority)
	if err != nil {
		if errors.Is(err, pricing.ErrUnavailable) {
			return nil, apperrors.NewPricingUnavailable(err, map[string]any{
				"service_type": desc.ServiceType,
				"subtype":      subtype,
				"priority":     priority,
			})
		}
		return nil, apperrors.NewUpstream("pricing", err)
	}

	now := s.now()
	req := &domain.ServiceRequest{
		OwnerID:             principal.ID,
		ServiceType:         desc.ServiceType,
		ServiceSubtype:      subtype,
		Status:              domain.StatusSubmitted,
		Priority:            priority,
		Details:             details,
		TotalAmount:         quote.Total,
		PaidAmount:          0,
		PaymentStatus:       domain.PaymentStatusFor(0, quote.Total),
		EstimatedCompletion: sla.EstimateCompletion(desc, subtype, priority, now, quote.Duration),
		CreatedAt:           now,
	}

	for attempt := 1; ; attempt++ {
		ref, err := s.references.Generate(desc.Prefix, now)
		if err != nil {
			return nil, fmt.Errorf("generate reference number: %w", err)
		}
		req.ReferenceNumber = ref
		err = s.requests.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return nil, fmt.Errorf("persist request: %w", err)
		}
		s.logger.Warn("reference number collision",
			zap.String("reference_number", ref),
			zap.Int("attempt", attempt))
		if attempt >= s.maxAttempts {
			return nil, apperrors.NewConflict("could not allocate a unique reference number", map[string]any{
				"attempts": attempt,
			})
		}
	}

	s.appendSystemNote(ctx, req, "Request submitted")
	s.metrics.RequestCreated(string(req.ServiceType))
	s.logger.Info("request created",
		zap.String("reference_number", req.ReferenceNumber),
		zap.String("service_type", string(req.ServiceType)),
		zap.String("subtype", subtype),
		zap.String("pricing_source", string(quote.Source)),
		zap.Int64("total_amount", int64(req.TotalAmount)))

	s.publishEvent(ctx, req, principal, events.EventRequestCreated, events.RequestCreatedPayload{
		Subtype:             req.ServiceSubtype,
		Priority:            req.Priority,
		TotalAmount:         req.TotalAmount,
		EstimatedCompletion: req.EstimatedCompletion,
	})
	return s.readModel(ctx, req)
}

// Update merges patch into the request details while the request is editable.
// The subtype detail is fixed once priced.
func (s *RequestService) Update(ctx context.Context, principal domain.Principal, reference string, patch map[string]string) (*domain.ServiceRequest, error) {
	current, desc, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}

	if !current.Status.Editable() {
		return nil, invalidState(reference, current.Status, "", "request can no longer be updated")
	}

	patch = normalizeDetails(patch)
	if len(patch) == 0 {
		return nil, apperrors.NewValidationError("empty update", map[string]any{"details": "at least one field is required"})
	}
	if _, ok := patch[desc.SubtypeField]; ok && desc.SubtypeField != "" {
		return nil, apperrors.NewValidationError("invalid update", map[string]any{desc.SubtypeField: "cannot change after pricing"})
	}
	if fields := s.validateDetails(ctx, desc, patch, false); len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid update", fields)
	}

	updated, err := s.requests.UpdateDetails(ctx, reference, patch, editableStatuses, s.now())
	if err != nil {
		return nil, s.mapWriteError(err, reference, "", "request can no longer be updated")
	}

	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	s.publishEvent(ctx, updated, principal, events.EventRequestUpdated, events.RequestUpdatedPayload{Fields: fields})
	return s.readModel(ctx, updated)
}

// TransitionStatus moves a request along its domain's status graph. Admin only.
func (s *RequestService) TransitionStatus(ctx context.Context, principal domain.Principal, reference string, next domain.RequestStatus, note string) (*domain.ServiceRequest, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators may change request status")
	}
	current, desc, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	if !desc.KnownStatus(next) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status": fmt.Sprintf("%q is not a %s status", next, desc.ServiceType),
		})
	}
	if !desc.CanTransition(current.Status, next) {
		return nil, invalidState(reference, current.Status, next,
			fmt.Sprintf("cannot move from %s to %s", current.Status, next))
	}
	note = strings.TrimSpace(note)
	if next == domain.StatusCancelled && note == "" {
		return nil, apperrors.NewValidationError("invalid cancellation", map[string]any{"note": "a reason is required to cancel"})
	}

	now := s.now()
	var completedAt *time.Time
	if next == domain.StatusCompleted {
		completedAt = &now
	}
	updated, err := s.requests.TransitionStatus(ctx, reference, current.Status, next, completedAt, now)
	if err != nil {
		return nil, s.mapWriteError(err, reference, next, "request status changed concurrently")
	}

	switch {
	case next == domain.StatusCancelled:
		s.appendNote(ctx, updated, principal, cancellationNote(principal, note))
	case note != "":
		s.appendNote(ctx, updated, principal, note)
	}
	s.appendSystemNote(ctx, updated, fmt.Sprintf("Status changed from %s to %s", current.Status, next))
	s.metrics.StatusTransitioned(string(updated.ServiceType), string(next))
	s.logger.Info("request status changed",
		zap.String("reference_number", reference),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", principal.ID))

	s.publishEvent(ctx, updated, principal, events.EventRequestStatusChanged, events.StatusChangedPayload{
		OldStatus: current.Status,
		NewStatus: next,
		Note:      note,
	})
	return s.readModel(ctx, updated)
}

// Cancel moves an editable request to cancelled and records why.
func (s *RequestService) Cancel(ctx context.Context, principal domain.Principal, reference, reason string) (*domain.ServiceRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("invalid cancellation", map[string]any{"reason": "is required"})
	}
	current, desc, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() || !desc.CanTransition(current.Status, domain.StatusCancelled) {
		return nil, invalidState(reference, current.Status, domain.StatusCancelled, "request can no longer be cancelled")
	}

	updated, err := s.requests.TransitionStatus(ctx, reference, current.Status, domain.StatusCancelled, nil, s.now())
	if err != nil {
		return nil, s.mapWriteError(err, reference, domain.StatusCancelled, "request can no longer be cancelled")
	}

	s.appendNote(ctx, updated, principal, cancellationNote(principal, reason))
	s.metrics.StatusTransitioned(string(updated.ServiceType), string(domain.StatusCancelled))

	s.publishEvent(ctx, updated, principal, events.EventRequestCancelled, events.RequestCancelledPayload{
		OldStatus: current.Status,
		Reason:    reason,
	})
	return s.readModel(ctx, updated)
}

// AddNote appends a note authored by principal. Notes are accepted in any status.
func (s *RequestService) AddNote(ctx context.Context, principal domain.Principal, reference, message string) (*domain.Note, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("invalid note", map[string]any{"message": "is required"})
	}
	if utf8.RuneCountInString(message) > maxNoteRunes {
		return nil, apperrors.NewValidationError("invalid note", map[string]any{"message": fmt.Sprintf("exceeds %d characters", maxNoteRunes)})
	}
	req, _, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}

	authorID := principal.ID
	note := &domain.Note{
		RequestID: req.ID,
		Message:   message,
		AuthorID:  &authorID,
		Origin:    principal.NoteOrigin(),
	}
	if err := s.notes.Append(ctx, note); err != nil {
		return nil, fmt.Errorf("append note: %w", err)
	}

	s.publishEvent(ctx, req, principal, events.EventNoteAdded, events.NoteAddedPayload{
		NoteID:  note.ID,
		Origin:  note.Origin,
		Preview: stringPreview(note.Message, 120),
	})
	return note, nil
}

// AddDocument appends an attachment. Documents are accepted in any status.
func (s *RequestService) AddDocument(ctx context.Context, principal domain.Principal, reference string, upload DocumentUpload) (*domain.DocumentAttachment, error) {
	req, _, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.Attach(ctx, req, principal.ID, upload)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, req, principal, events.EventDocumentAttached, events.DocumentAttachedPayload{
		DocumentID: doc.ID,
		Name:       doc.Name,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		Category:   doc.Category,
	})
	return doc, nil
}

// GetDocument returns one attachment including its payload.
func (s *RequestService) GetDocument(ctx context.Context, principal domain.Principal, reference, documentID string) (*domain.DocumentAttachment, error) {
	req, _, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	return s.documents.Open(ctx, req.ID, documentID)
}

// RecordPayment adds a received amount to the request. Admin only. It never
// talks to a payment gateway.
func (s *RequestService) RecordPayment(ctx context.Context, principal domain.Principal, reference string, amount domain.Amount) (*domain.ServiceRequest, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators may record payments")
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationError("invalid payment", map[string]any{"amount": "must be positive"})
	}
	current, _, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	if amount > current.TotalAmount-current.PaidAmount {
		return nil, overpayment(reference, amount, current)
	}

	updated, err := s.requests.RecordPayment(ctx, reference, amount, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOverpayment):
			return nil, overpayment(reference, amount, current)
		case errors.Is(err, repository.ErrNotFound):
			return nil, requestNotFound(reference)
		}
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.appendSystemNote(ctx, updated, fmt.Sprintf("Payment of %s recorded; %s of %s paid", amount, updated.PaidAmount, updated.TotalAmount))
	s.publishEvent(ctx, updated, principal, events.EventPaymentRecorded, events.PaymentRecordedPayload{
		Amount:        amount,
		PaidAmount:    updated.PaidAmount,
		TotalAmount:   updated.TotalAmount,
		PaymentStatus: updated.PaymentStatus,
	})
	return s.readModel(ctx, updated)
}

// Get returns the read model for a request with its notes and document metadata.
func (s *RequestService) Get(ctx context.Context, principal domain.Principal, reference string) (*domain.ServiceRequest, error) {
	req, _, err := s.loadAccessible(ctx, principal, reference)
	if err != nil {
		return nil, err
	}
	return s.readModel(ctx, req)
}

// List returns requests visible to principal. Users only ever see their own.
func (s *RequestService) List(ctx context.Context, principal domain.Principal, filter RequestListFilter) ([]domain.ServiceRequest, error) {
	if principal.ID == "" {
		return nil, apperrors.NewUnauthorized("missing principal")
	}
	repoFilter := repository.RequestFilter{
		OwnerID:      filter.OwnerID,
		ServiceTypes: filter.ServiceTypes,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if !principal.IsAdmin() {
		ownerID := principal.ID
		repoFilter.OwnerID = &ownerID
	}
	requests, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if requests == nil {
		requests = []domain.ServiceRequest{}
	}
	return requests, nil
}

func (s *RequestService) loadAccessible(ctx context.Context, principal domain.Principal, reference string) (*domain.ServiceRequest, catalog.Descriptor, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, catalog.Descriptor{}, requestNotFound(reference)
	}
	req, err := s.requests.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, catalog.Descriptor{}, requestNotFound(reference)
		}
		return nil, catalog.Descriptor{}, fmt.Errorf("load request: %w", err)
	}
	if !principal.CanAccess(req.OwnerID) {
		return nil, catalog.Descriptor{}, apperrors.NewForbidden("request belongs to another user")
	}
	desc, ok := catalog.Lookup(req.ServiceType)
	if !ok {
		return nil, catalog.Descriptor{}, fmt.Errorf("request %s has unknown service type %q", reference, req.ServiceType)
	}
	return req, desc, nil
}

func (s *RequestService) readModel(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	notes, err := s.notes.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	req.Notes = notes
	if s.documents != nil {
		docs, err := s.documents.ListMetadata(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		req.Documents = docs
	} else {
		req.Documents = []domain.DocumentAttachment{}
	}
	return req, nil
}

// validateDetails checks intake fields against the descriptor rules. With
// full set, every rule is checked; otherwise only fields present in details.
func (s *RequestService) validateDetails(ctx context.Context, desc catalog.Descriptor, details map[string]string, full bool) map[string]any {
	data := make(map[string]interface{}, len(details))
	for k, v := range details {
		data[k] = v
	}
	rules := make(map[string]interface{}, len(desc.RequiredFields))
	for field, rule := range desc.RequiredFields {
		if _, present := details[field]; full || present {
			rules[field] = rule
		}
	}

	fields := map[string]any{}
	for field, result := range s.validate.ValidateMapCtx(ctx, data, rules) {
		var verrs validator.ValidationErrors
		if err, ok := result.(error); ok && errors.As(err, &verrs) && len(verrs) > 0 {
			fields[field] = validationMessage(verrs[0])
			continue
		}
		fields[field] = "is invalid"
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// mapWriteError converts repository failures from conditional writes.
func (s *RequestService) mapWriteError(err error, reference string, attempted domain.RequestStatus, message string) error {
	var stateErr *repository.StateError
	switch {
	case errors.As(err, &stateErr):
		return invalidState(reference, stateErr.Current, attempted, message)
	case errors.Is(err, repository.ErrNotFound):
		return requestNotFound(reference)
	}
	return fmt.Errorf("write request %s: %w", reference, err)
}

func (s *RequestService) appendSystemNote(ctx context.Context, req *domain.ServiceRequest, message string) {
	note := &domain.Note{RequestID: req.ID, Message: message, Origin: domain.OriginSystem}
	if err := s.notes.Append(ctx, note); err != nil {
		s.logger.Error("append system note failed",
			zap.String("reference_number", req.ReferenceNumber),
			zap.Error(err))
	}
}

func (s *RequestService) appendNote(ctx context.Context, req *domain.ServiceRequest, principal domain.Principal, message string) {
	authorID := principal.ID
	note := &domain.Note{RequestID: req.ID, Message: message, AuthorID: &authorID, Origin: principal.NoteOrigin()}
	if err := s.notes.Append(ctx, note); err != nil {
		s.logger.Error("append note failed",
			zap.String("reference_number", req.ReferenceNumber),
			zap.Error(err))
	}
}

func (s *RequestService) publishEvent(ctx context.Context, req *domain.ServiceRequest, principal domain.Principal, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:              uuid.NewString(),
		Type:            eventType,
		RequestID:       req.ID,
		ReferenceNumber: req.ReferenceNumber,
		OwnerID:         req.OwnerID,
		ServiceType:     string(req.ServiceType),
		Actor:           events.ActorFrom(principal),
		Timestamp:       s.now(),
		Payload:         payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("reference_number", req.ReferenceNumber),
			zap.Error(err))
	}
}

func invalidState(reference string, current, attempted domain.RequestStatus, message string) error {
	details := map[string]any{"reference_number": reference}
	if attempted != "" {
		details["attempted_status"] = attempted
	}
	return apperrors.NewInvalidState(message, string(current), details)
}

func cancellationNote(principal domain.Principal, reason string) string {
	return fmt.Sprintf("Cancelled by %s %s: %s", principal.Role, principal.ID, reason)
}

func overpayment(reference string, amount domain.Amount, current *domain.ServiceRequest) error {
	return apperrors.NewValidationError("payment exceeds outstanding amount", map[string]any{
		"reference_number": reference,
		"amount":           amount,
		"outstanding":      current.TotalAmount - current.PaidAmount,
	})
}

func requestNotFound(reference string) error {
	return apperrors.NewNotFound("service request", map[string]any{"reference_number": reference})
}

func normalizeDetails(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
