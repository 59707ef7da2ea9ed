package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// RequestFilter captures list parameters.
type RequestFilter struct {
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

// ServiceRequestRepository encapsulates service request persistence.
// Status and payment writes are conditional single-statement updates.
type ServiceRequestRepository interface {
	// Create inserts a request. It returns ErrDuplicateReference when the reference number is taken.
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByReference(ctx context.Context, reference string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	// UpdateDetails merges patch into the request's details while its status is one of allowed.
	UpdateDetails(ctx context.Context, reference string, patch map[string]string, allowed []domain.RequestStatus, at time.Time) (*domain.ServiceRequest, error)
	// TransitionStatus moves the request from -> to, failing with a StateError if the status changed underneath.
	TransitionStatus(ctx context.Context, reference string, from, to domain.RequestStatus, actualCompletion *time.Time, at time.Time) (*domain.ServiceRequest, error)
	// RecordPayment adds amount to paid_amount, failing with ErrOverpayment past the total.
	RecordPayment(ctx context.Context, reference string, amount domain.Amount, at time.Time) (*domain.ServiceRequest, error)
}

type serviceRequestRepository struct {
	db DB
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(db DB) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

const requestColumns = `id, owner_id, service_type, service_subtype, reference_number, status, priority, details,
               total_amount, paid_amount, payment_status, estimated_completion, actual_completion, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (owner_id, service_type, service_subtype, reference_number, status, priority, details,
            total_amount, paid_amount, payment_status, estimated_completion, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
        RETURNING id, updated_at`
	details := req.Details
	if details == nil {
		details = map[string]string{}
	}
	err := r.db.QueryRow(ctx, query,
		req.OwnerID,
		req.ServiceType,
		req.ServiceSubtype,
		req.ReferenceNumber,
		req.Status,
		req.Priority,
		details,
		req.TotalAmount,
		req.PaidAmount,
		req.PaymentStatus,
		req.EstimatedCompletion,
		req.CreatedAt,
	).Scan(&req.ID, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintReferenceNumber) {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *serviceRequestRepository) GetByReference(ctx context.Context, reference string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE reference_number=$1`
	req, err := scanRequest(r.db.QueryRow(ctx, query, reference))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if len(filter.ServiceTypes) > 0 {
		args = append(args, toStrings(filter.ServiceTypes))
		clauses = append(clauses, fmt.Sprintf("service_type = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, toStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.Priorities) > 0 {
		args = append(args, toStrings(filter.Priorities))
		clauses = append(clauses, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(reference_number) LIKE $%d", len(args)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *serviceRequestRepository) UpdateDetails(ctx context.Context, reference string, patch map[string]string, allowed []domain.RequestStatus, at time.Time) (*domain.ServiceRequest, error) {
	query := `
        UPDATE service_requests SET details = details || $1::jsonb, updated_at=$2
        WHERE reference_number=$3 AND status = ANY($4)
        RETURNING ` + requestColumns
	req, err := scanRequest(r.db.QueryRow(ctx, query, patch, at, reference, toStrings(allowed)))
	if err == nil {
		return req, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missReason(ctx, reference)
	}
	return nil, err
}

func (r *serviceRequestRepository) TransitionStatus(ctx context.Context, reference string, from, to domain.RequestStatus, actualCompletion *time.Time, at time.Time) (*domain.ServiceRequest, error) {
	query := `
        UPDATE service_requests SET status=$1, actual_completion=$2, updated_at=$3
        WHERE reference_number=$4 AND status=$5
        RETURNING ` + requestColumns
	req, err := scanRequest(r.db.QueryRow(ctx, query, to, actualCompletion, at, reference, from))
	if err == nil {
		return req, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missReason(ctx, reference)
	}
	return nil, err
}

func (r *serviceRequestRepository) RecordPayment(ctx context.Context, reference string, amount domain.Amount, at time.Time) (*domain.ServiceRequest, error) {
	query := `
        UPDATE service_requests SET
            paid_amount = paid_amount + $1,
            payment_status = CASE
                WHEN paid_amount + $1 >= total_amount THEN 'paid'
                WHEN paid_amount + $1 > 0 THEN 'partial'
                ELSE 'unpaid' END,
            updated_at=$2
        WHERE reference_number=$3 AND $1 <= total_amount - paid_amount
        RETURNING ` + requestColumns
	req, err := scanRequest(r.db.QueryRow(ctx, query, amount, at, reference))
	if err == nil {
		return req, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByReference(ctx, reference); getErr != nil {
			return nil, getErr
		}
		return nil, ErrOverpayment
	}
	return nil, err
}

// missReason explains why a conditional update matched no rows.
func (r *serviceRequestRepository) missReason(ctx context.Context, reference string) error {
	var status domain.RequestStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM service_requests WHERE reference_number=$1`, reference).Scan(&status)
	if err != nil {
		return notFound(err)
	}
	return &StateError{Reference: reference, Current: status}
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&req.ServiceType,
		&req.ServiceSubtype,
		&req.ReferenceNumber,
		&req.Status,
		&req.Priority,
		&req.Details,
		&req.TotalAmount,
		&req.PaidAmount,
		&req.PaymentStatus,
		&req.EstimatedCompletion,
		&req.ActualCompletion,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
