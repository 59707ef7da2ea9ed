// Package memory provides mutex-guarded in-memory repositories used when no
// database is configured and by service tests. Each operation is atomic with
// respect to the others, matching the guarantees of the Postgres implementation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
)

// Store holds all entities behind one lock.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	requests    map[string]*domain.ServiceRequest // by reference number
	requestByID map[string]string                 // id -> reference number
	notes       map[string][]domain.Note
	documents   map[string][]domain.DocumentAttachment
	pricing     []*domain.PricingEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		requests:    make(map[string]*domain.ServiceRequest),
		requestByID: make(map[string]string),
		notes:       make(map[string][]domain.Note),
		documents:   make(map[string][]domain.DocumentAttachment),
	}
}

// Requests exposes the store as a ServiceRequestRepository.
func (s *Store) Requests() repository.ServiceRequestRepository { return requestRepo{s} }

// Notes exposes the store as a NoteRepository.
func (s *Store) Notes() repository.NoteRepository { return noteRepo{s} }

// Documents exposes the store as a DocumentRepository.
func (s *Store) Documents() repository.DocumentRepository { return documentRepo{s} }

// Pricing exposes the store as a PricingRepository.
func (s *Store) Pricing() repository.PricingRepository { return pricingRepo{s} }

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ReferenceNumber]; exists {
		return repository.ErrDuplicateReference
	}
	req.ID = uuid.NewString()
	req.UpdatedAt = req.CreatedAt
	stored := cloneRequest(req)
	s.requests[req.ReferenceNumber] = stored
	s.requestByID[req.ID] = req.ReferenceNumber
	return nil
}

func (r requestRepo) GetByReference(_ context.Context, reference string) (*domain.ServiceRequest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r requestRepo) List(_ context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.ServiceRequest
	for _, req := range s.requests {
		if !matchesFilter(req, filter) {
			continue
		}
		matched = append(matched, *cloneRequest(req))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r requestRepo) UpdateDetails(_ context.Context, reference string, patch map[string]string, allowed []domain.RequestStatus, at time.Time) (*domain.ServiceRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !containsStatus(allowed, req.Status) {
		return nil, &repository.StateError{Reference: reference, Current: req.Status}
	}
	if req.Details == nil {
		req.Details = map[string]string{}
	}
	for k, v := range patch {
		req.Details[k] = v
	}
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (r requestRepo) TransitionStatus(_ context.Context, reference string, from, to domain.RequestStatus, actualCompletion *time.Time, at time.Time) (*domain.ServiceRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Status != from {
		return nil, &repository.StateError{Reference: reference, Current: req.Status}
	}
	req.Status = to
	req.ActualCompletion = cloneTime(actualCompletion)
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (r requestRepo) RecordPayment(_ context.Context, reference string, amount domain.Amount, at time.Time) (*domain.ServiceRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if amount > req.TotalAmount-req.PaidAmount {
		return nil, repository.ErrOverpayment
	}
	req.PaidAmount += amount
	req.PaymentStatus = domain.PaymentStatusFor(req.PaidAmount, req.TotalAmount)
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

type noteRepo struct{ s *Store }

func (r noteRepo) Append(_ context.Context, note *domain.Note) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requestByID[note.RequestID]; !ok {
		return repository.ErrNotFound
	}
	note.ID = uuid.NewString()
	note.CreatedAt = s.now()
	stored := *note
	stored.AuthorID = cloneString(note.AuthorID)
	s.notes[note.RequestID] = append(s.notes[note.RequestID], stored)
	return nil
}

func (r noteRepo) ListByRequest(_ context.Context, requestID string) ([]domain.Note, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Note(nil), s.notes[requestID]...), nil
}

type documentRepo struct{ s *Store }

func (r documentRepo) Create(_ context.Context, doc *domain.DocumentAttachment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requestByID[doc.RequestID]; !ok {
		return repository.ErrNotFound
	}
	doc.ID = uuid.NewString()
	doc.UploadedAt = s.now()
	stored := *doc
	stored.Content = append([]byte(nil), doc.Content...)
	stored.StorageKey = cloneString(doc.StorageKey)
	s.documents[doc.RequestID] = append(s.documents[doc.RequestID], stored)
	return nil
}

func (r documentRepo) ListMetadata(_ context.Context, requestID string) ([]domain.DocumentAttachment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.documents[requestID]
	out := make([]domain.DocumentAttachment, 0, len(docs))
	for _, doc := range docs {
		doc.Content = nil
		out = append(out, doc)
	}
	return out, nil
}

func (r documentRepo) Get(_ context.Context, requestID, documentID string) (*domain.DocumentAttachment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents[requestID] {
		if doc.ID == documentID {
			doc.Content = append([]byte(nil), doc.Content...)
			return &doc, nil
		}
	}
	return nil, repository.ErrNotFound
}

type pricingRepo struct{ s *Store }

func (r pricingRepo) GetActive(_ context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry := s.activeLocked(serviceType, subtype, priority); entry != nil {
		return clonePricing(entry), nil
	}
	return nil, repository.ErrNotFound
}

func (r pricingRepo) GetByID(_ context.Context, id string) (*domain.PricingEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.pricing {
		if entry.ID == id {
			return clonePricing(entry), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r pricingRepo) List(_ context.Context, filter repository.PricingFilter) ([]domain.PricingEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PricingEntry
	for _, entry := range s.pricing {
		if filter.ServiceType != nil && entry.ServiceType != *filter.ServiceType {
			continue
		}
		if !filter.IncludeInactive && !entry.Active {
			continue
		}
		out = append(out, *clonePricing(entry))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ServiceType != b.ServiceType {
			return a.ServiceType < b.ServiceType
		}
		if a.Subtype != b.Subtype {
			return a.Subtype < b.Subtype
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

func (r pricingRepo) Create(_ context.Context, entry *domain.PricingEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPricingLocked(entry)
}

func (r pricingRepo) Replace(_ context.Context, entry *domain.PricingEntry) (*domain.PricingEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var previous *domain.PricingEntry
	if current := s.activeLocked(entry.ServiceType, entry.Subtype, entry.Priority); current != nil {
		current.Active = false
		current.UpdatedAt = s.now()
		previous = clonePricing(current)
	}
	if err := s.insertPricingLocked(entry); err != nil {
		return nil, err
	}
	return previous, nil
}

func (r pricingRepo) Deactivate(_ context.Context, id string, at time.Time) (*domain.PricingEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.pricing {
		if entry.ID == id {
			entry.Active = false
			entry.UpdatedAt = at
			return clonePricing(entry), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) activeLocked(serviceType domain.ServiceType, subtype string, priority domain.Priority) *domain.PricingEntry {
	for _, entry := range s.pricing {
		if entry.Active && entry.ServiceType == serviceType && entry.Subtype == subtype && entry.Priority == priority {
			return entry
		}
	}
	return nil
}

func (s *Store) insertPricingLocked(entry *domain.PricingEntry) error {
	if s.activeLocked(entry.ServiceType, entry.Subtype, entry.Priority) != nil {
		return repository.ErrDuplicatePricingKey
	}
	now := s.now()
	entry.ID = uuid.NewString()
	entry.Active = true
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.pricing = append(s.pricing, clonePricing(entry))
	return nil
}

func matchesFilter(req *domain.ServiceRequest, filter repository.RequestFilter) bool {
	if filter.OwnerID != nil && req.OwnerID != *filter.OwnerID {
		return false
	}
	if len(filter.ServiceTypes) > 0 && !contains(filter.ServiceTypes, req.ServiceType) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !contains(filter.Priorities, req.Priority) {
		return false
	}
	if filter.CreatedFrom != nil && req.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && req.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" && !strings.Contains(strings.ToLower(req.ReferenceNumber), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsStatus(values []domain.RequestStatus, v domain.RequestStatus) bool {
	return contains(values, v)
}

func cloneRequest(req *domain.ServiceRequest) *domain.ServiceRequest {
	out := *req
	out.Details = make(map[string]string, len(req.Details))
	for k, v := range req.Details {
		out.Details[k] = v
	}
	out.ActualCompletion = cloneTime(req.ActualCompletion)
	out.Notes = nil
	out.Documents = nil
	return &out
}

func clonePricing(entry *domain.PricingEntry) *domain.PricingEntry {
	out := *entry
	out.Features = append([]string(nil), entry.Features...)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
