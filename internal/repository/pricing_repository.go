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

// PricingFilter narrows entry listings.
type PricingFilter struct {
	ServiceType     *domain.ServiceType
	IncludeInactive bool
}

// PricingRepository stores soft-versioned pricing entries.
// At most one entry per (service type, subtype, priority) is active.
type PricingRepository interface {
	GetActive(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error)
	GetByID(ctx context.Context, id string) (*domain.PricingEntry, error)
	List(ctx context.Context, filter PricingFilter) ([]domain.PricingEntry, error)
	// Create inserts an active entry, failing with ErrDuplicatePricingKey if the key is taken.
	Create(ctx context.Context, entry *domain.PricingEntry) error
	// Replace deactivates the current active entry for the key, if any, and inserts entry, atomically.
	Replace(ctx context.Context, entry *domain.PricingEntry) (*domain.PricingEntry, error)
	Deactivate(ctx context.Context, id string, at time.Time) (*domain.PricingEntry, error)
}

type pricingRepository struct {
	db DB
}

// NewPricingRepository constructs repository.
func NewPricingRepository(db DB) PricingRepository {
	return &pricingRepository{db: db}
}

const pricingColumns = `id, service_type, subtype, priority, price, duration, features, active, created_at, updated_at`

func (r *pricingRepository) GetActive(ctx context.Context, serviceType domain.ServiceType, subtype string, priority domain.Priority) (*domain.PricingEntry, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing_entries
        WHERE service_type=$1 AND subtype=$2 AND priority=$3 AND active`
	entry, err := scanPricing(r.db.QueryRow(ctx, query, serviceType, subtype, priority))
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

func (r *pricingRepository) GetByID(ctx context.Context, id string) (*domain.PricingEntry, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing_entries WHERE id=$1`
	entry, err := scanPricing(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

func (r *pricingRepository) List(ctx context.Context, filter PricingFilter) ([]domain.PricingEntry, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ServiceType != nil {
		args = append(args, *filter.ServiceType)
		clauses = append(clauses, fmt.Sprintf("service_type=$%d", len(args)))
	}
	if !filter.IncludeInactive {
		clauses = append(clauses, "active")
	}
	query := fmt.Sprintf(`SELECT %s FROM pricing_entries WHERE %s ORDER BY service_type, subtype, priority, created_at DESC`,
		pricingColumns, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PricingEntry
	for rows.Next() {
		entry, err := scanPricing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

const insertPricing = `
        INSERT INTO pricing_entries (service_type, subtype, priority, price, duration, features, active)
        VALUES ($1,$2,$3,$4,$5,$6,TRUE)
        RETURNING id, active, created_at, updated_at`

func (r *pricingRepository) Create(ctx context.Context, entry *domain.PricingEntry) error {
	return insertEntry(ctx, r.db, entry)
}

func (r *pricingRepository) Replace(ctx context.Context, entry *domain.PricingEntry) (*domain.PricingEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `UPDATE pricing_entries SET active=FALSE, updated_at=NOW()
        WHERE service_type=$1 AND subtype=$2 AND priority=$3 AND active
        RETURNING ` + pricingColumns
	previous, err := scanPricing(tx.QueryRow(ctx, query, entry.ServiceType, entry.Subtype, entry.Priority))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		previous = nil
	}
	if err := insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return previous, nil
}

func (r *pricingRepository) Deactivate(ctx context.Context, id string, at time.Time) (*domain.PricingEntry, error) {
	query := `UPDATE pricing_entries SET active=FALSE, updated_at=$1 WHERE id=$2
        RETURNING ` + pricingColumns
	entry, err := scanPricing(r.db.QueryRow(ctx, query, at, id))
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertEntry(ctx context.Context, q rowQuerier, entry *domain.PricingEntry) error {
	features := entry.Features
	if features == nil {
		features = []string{}
	}
	err := q.QueryRow(ctx, insertPricing,
		entry.ServiceType,
		entry.Subtype,
		entry.Priority,
		entry.Price,
		entry.Duration,
		features,
	).Scan(&entry.ID, &entry.Active, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintActivePricing) {
			return ErrDuplicatePricingKey
		}
		return err
	}
	return nil
}

func scanPricing(row pgx.Row) (*domain.PricingEntry, error) {
	var entry domain.PricingEntry
	if err := row.Scan(
		&entry.ID,
		&entry.ServiceType,
		&entry.Subtype,
		&entry.Priority,
		&entry.Price,
		&entry.Duration,
		&entry.Features,
		&entry.Active,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
