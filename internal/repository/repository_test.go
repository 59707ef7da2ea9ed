package repository

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateMapsReferenceCollision(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)

	mock.ExpectQuery("INSERT INTO service_requests").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "service_requests_reference_number_key"})

	err := repo.Create(context.Background(), &domain.ServiceRequest{ReferenceNumber: "BR1700000000000ABC123"})
	require.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateKeepsOtherUniqueViolations(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)

	mock.ExpectQuery("INSERT INTO service_requests").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "some_other_key"})

	err := repo.Create(context.Background(), &domain.ServiceRequest{ReferenceNumber: "BR1700000000000ABC123"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateReference))
}

func TestTransitionStatusReportsCurrentStatusOnMiss(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)
	ref := "BR1700000000000ABC123"

	mock.ExpectQuery("UPDATE service_requests SET status").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT status FROM service_requests").
		WithArgs(ref).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("completed"))

	_, err := repo.TransitionStatus(context.Background(), ref, domain.StatusProcessing, domain.StatusCompleted, nil, time.Now())
	require.ErrorIs(t, err, ErrStaleState)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, domain.StatusCompleted, stateErr.Current)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusUnknownReference(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)

	mock.ExpectQuery("UPDATE service_requests SET status").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT status FROM service_requests").
		WillReturnRows(pgxmock.NewRows([]string{"status"}))

	_, err := repo.TransitionStatus(context.Background(), "BR0", domain.StatusSubmitted, domain.StatusProcessing, nil, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPaymentUnknownReference(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)

	mock.ExpectQuery("UPDATE service_requests SET").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT .* FROM service_requests WHERE reference_number").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.RecordPayment(context.Background(), "BR0", domain.NGN(10), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPaymentGuardsAgainstOutstanding(t *testing.T) {
	mock := newMock(t)
	repo := NewServiceRequestRepository(mock)
	at := time.Now()
	amount := domain.Amount(math.MaxInt64)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE reference_number=$3 AND $1 <= total_amount - paid_amount")).
		WithArgs(amount, at, "BR1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT .* FROM service_requests WHERE reference_number").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.RecordPayment(context.Background(), "BR1", amount, at)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricingCreateMapsActiveKeyCollision(t *testing.T) {
	mock := newMock(t)
	repo := NewPricingRepository(mock)

	mock.ExpectQuery("INSERT INTO pricing_entries").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "pricing_entries_active_key"})

	err := repo.Create(context.Background(), &domain.PricingEntry{
		ServiceType: domain.ServiceTypeBusinessRegistration,
		Subtype:     "incorporation",
		Priority:    domain.PriorityStandard,
		Price:       domain.NGN(30000),
	})
	assert.ErrorIs(t, err, ErrDuplicatePricingKey)
}

func TestPricingReplaceWithoutPreviousEntry(t *testing.T) {
	mock := newMock(t)
	repo := NewPricingRepository(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pricing_entries SET active=FALSE").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO pricing_entries").
		WillReturnRows(pgxmock.NewRows([]string{"id", "active", "created_at", "updated_at"}).
			AddRow("8f2b6c1e-0000-4000-8000-000000000001", true, now, now))
	mock.ExpectCommit()
	mock.ExpectRollback()

	entry := &domain.PricingEntry{
		ServiceType: domain.ServiceTypeDueDiligence,
		Subtype:     "individual",
		Priority:    domain.PriorityStandard,
		Price:       domain.NGN(18000),
	}
	previous, err := repo.Replace(context.Background(), entry)
	require.NoError(t, err)
	assert.Nil(t, previous)
	assert.Equal(t, "8f2b6c1e-0000-4000-8000-000000000001", entry.ID)
	assert.True(t, entry.Active)
}

func TestNormalizePage(t *testing.T) {
	limit, offset := normalizePage(0, -5)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, _ = normalizePage(1000, 0)
	assert.Equal(t, 200, limit)
}
