package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
	"github.com/trinhly333/worksheet/pkg/database"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

const customerColumns = `id, full_name, email, phone, referral_source, total_orders, total_spent,
	completed_orders, completed_spent, last_order_date, status, created_at, updated_at`

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	db database.DBTX
}

func NewCustomerRepository(db database.DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// UpsertByEmail inserts a customer or, when the email is known, refreshes the
// contact fields. A returning customer is reactivated.
func (r *CustomerRepository) UpsertByEmail(ctx context.Context, info domain.CustomerInfo, at time.Time) (_ *domain.Customer, err error) {
	query := `
		INSERT INTO customers (
			id, full_name, email, phone, referral_source, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 'active', $6, $6)
		ON CONFLICT ((LOWER(email))) DO UPDATE SET
			full_name       = EXCLUDED.full_name,
			phone           = EXCLUDED.phone,
			referral_source = EXCLUDED.referral_source,
			status          = 'active',
			updated_at      = EXCLUDED.updated_at
		RETURNING ` + customerColumns

	ctx, end := database.TraceQuery(ctx, "UpsertCustomer", query)
	defer func() { end(err) }()

	var c domain.Customer
	err = r.db.QueryRow(ctx, query,
		uuid.New().String(),
		info.FullName,
		strings.ToLower(strings.TrimSpace(info.Email)),
		info.Phone,
		info.ReferralSource,
		at,
	).Scan(customerDest(&c)...)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a customer by its ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (_ *domain.Customer, err error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCustomerByID", query)
	defer func() { end(err) }()

	var c domain.Customer
	if err = r.db.QueryRow(ctx, query, id).Scan(customerDest(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

// List returns customers matching the filter, most recent buyers first.
func (r *CustomerRepository) List(ctx context.Context, filter repository.CustomerFilter) (_ []domain.Customer, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(full_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+s+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PerPage)
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM customers
		%s
		ORDER BY last_order_date DESC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListCustomers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	var totalCount int
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(append(customerDest(&c), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customer rows: %w", err)
	}

	return customers, totalCount, nil
}

// UpdateStatus sets the customer status and returns the updated row.
func (r *CustomerRepository) UpdateStatus(ctx context.Context, id, status string) (_ *domain.Customer, err error) {
	query := `UPDATE customers SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + customerColumns

	ctx, end := database.TraceQuery(ctx, "UpdateCustomerStatus", query)
	defer func() { end(err) }()

	var c domain.Customer
	if err = r.db.QueryRow(ctx, query, status, id).Scan(customerDest(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer", id)
		}
		return nil, fmt.Errorf("update customer status: %w", err)
	}
	return &c, nil
}

// RecordPlacedOrder adds one placed order of total to the customer.
func (r *CustomerRepository) RecordPlacedOrder(ctx context.Context, customerID string, total int64, at time.Time) (err error) {
	query := `
		UPDATE customers
		SET total_orders    = total_orders + 1,
		    total_spent     = total_spent + $1,
		    last_order_date = $2,
		    updated_at      = $2
		WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "RecordPlacedOrder", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, total, at, customerID)
	if err != nil {
		return fmt.Errorf("record placed order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", customerID)
	}
	return nil
}

// RecordCompletedOrder adds one completed order of total to the customer.
func (r *CustomerRepository) RecordCompletedOrder(ctx context.Context, customerID string, total int64) (err error) {
	query := `
		UPDATE customers
		SET completed_orders = completed_orders + 1,
		    completed_spent  = completed_spent + $1,
		    updated_at       = NOW()
		WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "RecordCompletedOrder", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, total, customerID)
	if err != nil {
		return fmt.Errorf("record completed order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", customerID)
	}
	return nil
}

func customerDest(c *domain.Customer) []any {
	return []any{
		&c.ID,
		&c.FullName,
		&c.Email,
		&c.Phone,
		&c.ReferralSource,
		&c.TotalOrders,
		&c.TotalSpent,
		&c.CompletedOrders,
		&c.CompletedSpent,
		&c.LastOrderDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}
