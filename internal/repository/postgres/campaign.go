package postgres

import (
	"context"
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

const campaignColumns = `id, name, description, code, discount_type, discount_value,
	min_order_amount, max_discount_amount, max_uses, current_uses,
	start_date, end_date, status, created_at, updated_at`

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db database.DBTX
}

// NewCampaignRepository creates a new PostgreSQL-backed campaign repository.
func NewCampaignRepository(db database.DBTX) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign into the database.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) (err error) {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	ctx, end := database.TraceQuery(ctx, "CreateCampaign", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.MinOrderAmount,
		c.MaxDiscountAmount,
		c.MaxUses,
		c.CurrentUses,
		c.StartDate,
		c.EndDate,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "code", c.Code)
		}
		return fmt.Errorf("insert campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by its ID.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.scanCampaign(ctx, "GetCampaignByID", query, id)
}

// GetByCode retrieves a campaign by its code, ignoring case.
func (r *CampaignRepository) GetByCode(ctx context.Context, code string) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE UPPER(code) = UPPER($1)`
	return r.scanCampaign(ctx, "GetCampaignByCode", query, code)
}

// List returns campaigns matching the given filter with the total count.
func (r *CampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) (_ []domain.Campaign, _ int, err error) {
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
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argIndex, argIndex))
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
		FROM campaigns
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		campaignColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListCampaigns", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	var totalCount int
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(append(campaignDest(&c), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, totalCount, nil
}

// ListActive returns active campaigns whose window contains now. Eligibility
// against a subtotal and the usage limit is left to the pricing engine.
func (r *CampaignRepository) ListActive(ctx context.Context, now time.Time) (_ []domain.Campaign, err error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'active' AND start_date <= $1 AND end_date >= $1
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListActiveCampaigns", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(campaignDest(&c)...); err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, nil
}

// Update rewrites the editable columns. current_uses belongs to the ledger
// and is never written here.
func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) (err error) {
	query := `
		UPDATE campaigns
		SET name = $1, description = $2, code = $3, discount_type = $4, discount_value = $5,
		    min_order_amount = $6, max_discount_amount = $7, max_uses = $8,
		    start_date = $9, end_date = $10, status = $11, updated_at = $12
		WHERE id = $13`

	ctx, end := database.TraceQuery(ctx, "UpdateCampaign", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		c.Name,
		c.Description,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.MinOrderAmount,
		c.MaxDiscountAmount,
		c.MaxUses,
		c.StartDate,
		c.EndDate,
		c.Status,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "code", c.Code)
		}
		if isCheckViolation(err) {
			return apperrors.InvalidInput("max uses must not be below current uses")
		}
		return fmt.Errorf("update campaign: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", c.ID)
	}

	return nil
}

// Delete removes a campaign. Orders that used it keep their discount code and
// lose the campaign reference.
func (r *CampaignRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM campaigns WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCampaign", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", id)
	}
	return nil
}

func campaignDest(c *domain.Campaign) []any {
	return []any{
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinOrderAmount,
		&c.MaxDiscountAmount,
		&c.MaxUses,
		&c.CurrentUses,
		&c.StartDate,
		&c.EndDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func (r *CampaignRepository) scanCampaign(ctx context.Context, op, query string, args ...any) (_ *domain.Campaign, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var c domain.Campaign
	if err = r.db.QueryRow(ctx, query, args...).Scan(campaignDest(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan campaign: %w", err)
	}
	return &c, nil
}
