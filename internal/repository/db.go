package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateReference is returned when a reference number is already taken.
	ErrDuplicateReference = errors.New("duplicate reference number")
	// ErrDuplicatePricingKey is returned when an active entry already exists for a key.
	ErrDuplicatePricingKey = errors.New("duplicate active pricing key")
	// ErrStaleState is matched by StateError.
	ErrStaleState = errors.New("request status does not permit the change")
	// ErrOverpayment is returned when a payment would exceed the total amount.
	ErrOverpayment = errors.New("payment exceeds outstanding amount")
)

// StateError reports a conditional write that lost to the request's current status.
type StateError struct {
	Reference string
	Current   domain.RequestStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("request %s is %s", e.Reference, e.Current)
}

// Is lets errors.Is match ErrStaleState.
func (e *StateError) Is(target error) bool {
	return target == ErrStaleState
}

const uniqueViolation = "23505"

const (
	constraintReferenceNumber = "service_requests_reference_number_key"
	constraintActivePricing   = "pricing_entries_active_key"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
