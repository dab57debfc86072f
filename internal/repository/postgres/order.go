package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
	"github.com/trinhly333/worksheet/pkg/database"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

const orderColumns = `id, order_number, customer_id, items, subtotal, discount_code, campaign_id,
	discount_amount, total, status, customer_info, qr_code_url, usage_status,
	completed_at, cancelled_at, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order. A clashing order number surfaces as ErrAlreadyExists.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	infoJSON, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return fmt.Errorf("marshal customer info: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		o.ID,
		o.OrderNumber,
		o.CustomerID,
		itemsJSON,
		o.Subtotal,
		o.DiscountCode,
		o.CampaignID,
		o.DiscountAmount,
		o.Total,
		o.Status,
		infoJSON,
		o.QRCodeURL,
		o.UsageStatus,
		o.CompletedAt,
		o.CancelledAt,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "order_number", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOrder(ctx, "GetOrderByID", query, id)
}

// GetByNumber retrieves an order by its public order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	return r.scanOrder(ctx, "GetOrderByNumber", query, orderNumber)
}

// List returns orders matching the filter, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, _ int, err error) {
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

	if filter.UsageStatus != nil {
		conditions = append(conditions, fmt.Sprintf("usage_status = $%d", argIndex))
		args = append(args, *filter.UsageStatus)
		argIndex++
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(order_number ILIKE $%d OR customer_info->>'email' ILIKE $%d)", argIndex, argIndex))
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
		FROM orders
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	var totalCount int
	for rows.Next() {
		var (
			o   domain.Order
			raw orderJSON
		)
		if err := rows.Scan(append(orderDest(&o, &raw), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if err := raw.decode(&o); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

// UpdateStatus performs a compare-and-set on the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (_ *domain.Order, err error) {
	query := `
		UPDATE orders
		SET status = $1,
		    updated_at = $2,
		    completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancelled_at END
		WHERE id = $3 AND status = $4
		RETURNING ` + orderColumns

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	defer func() { end(err) }()

	var (
		o   domain.Order
		raw orderJSON
	)
	if err = r.db.QueryRow(ctx, query, to, at, id, from).Scan(orderDest(&o, &raw)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Conflict(fmt.Sprintf("order %s is no longer %s", id, from))
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err = raw.decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// SetUsageStatus records the ledger outcome for an order.
func (r *OrderRepository) SetUsageStatus(ctx context.Context, id, usageStatus string) (err error) {
	query := `UPDATE orders SET usage_status = $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "SetOrderUsageStatus", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, usageStatus, id)
	if err != nil {
		return fmt.Errorf("set order usage status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// orderJSON holds the JSONB columns until they are decoded.
type orderJSON struct {
	items []byte
	info  []byte
}

func (j *orderJSON) decode(o *domain.Order) error {
	if err := json.Unmarshal(j.items, &o.Items); err != nil {
		return fmt.Errorf("unmarshal order items: %w", err)
	}
	if o.Items == nil {
		o.Items = []domain.LineItem{}
	}
	if err := json.Unmarshal(j.info, &o.CustomerInfo); err != nil {
		return fmt.Errorf("unmarshal customer info: %w", err)
	}
	return nil
}

func orderDest(o *domain.Order, raw *orderJSON) []any {
	return []any{
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&raw.items,
		&o.Subtotal,
		&o.DiscountCode,
		&o.CampaignID,
		&o.DiscountAmount,
		&o.Total,
		&o.Status,
		&raw.info,
		&o.QRCodeURL,
		&o.UsageStatus,
		&o.CompletedAt,
		&o.CancelledAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func (r *OrderRepository) scanOrder(ctx context.Context, op, query string, args ...any) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var (
		o   domain.Order
		raw orderJSON
	)
	if err = r.db.QueryRow(ctx, query, args...).Scan(orderDest(&o, &raw)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if err = raw.decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}
