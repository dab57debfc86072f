package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/pkg/database"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

const (
	markUsageCountedSQL = `
		UPDATE orders
		SET usage_status = 'counted', updated_at = NOW()
		WHERE id = $1 AND usage_status IN ('pending', 'unrecorded')`

	incrementUsageSQL = `
		UPDATE campaigns
		SET current_uses = current_uses + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)`

	campaignCodeSQL = `SELECT code FROM campaigns WHERE id = $1`
)

// LedgerRepository counts campaign redemptions against their limits.
type LedgerRepository struct {
	db database.DBTX
}

func NewLedgerRepository(db database.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// IncrementUsage flips the order's usage status to counted and bumps the
// campaign counter in one transaction. Both updates are conditional, so a
// repeated confirmation cannot count twice and a full campaign cannot
// overshoot max_uses.
func (r *LedgerRepository) IncrementUsage(ctx context.Context, orderID, campaignID string) (err error) {
	ctx, end := database.TraceQuery(ctx, "IncrementCampaignUsage", incrementUsageSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ct, err := tx.Exec(ctx, markUsageCountedSQL, orderID)
	if err != nil {
		return fmt.Errorf("mark order usage counted: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUsageAlreadyCounted
	}

	ct, err = tx.Exec(ctx, incrementUsageSQL, campaignID)
	if err != nil {
		return fmt.Errorf("increment campaign usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var code string
		if err := tx.QueryRow(ctx, campaignCodeSQL, campaignID).Scan(&code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("campaign", campaignID)
			}
			return fmt.Errorf("look up campaign: %w", err)
		}
		return domain.ErrDiscountUsageExhausted(code)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}
