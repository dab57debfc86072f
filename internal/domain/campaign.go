package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount type constants.
const (
	DiscountTypeFixed      = "fixed"
	DiscountTypePercentage = "percentage"
)

// Campaign status constants.
const (
	CampaignStatusActive   = "active"
	CampaignStatusInactive = "inactive"
)

// Campaign is a discount definition redeemable by code or picked automatically
// by the pricing engine.
//
// DiscountValue holds VND for fixed campaigns and a percent (0, 100] for
// percentage campaigns.
type Campaign struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Code              string          `json:"code"`
	DiscountType      string          `json:"discount_type"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	MinOrderAmount    int64           `json:"min_order_amount"`
	MaxDiscountAmount *int64          `json:"max_discount_amount,omitempty"`
	MaxUses           *int            `json:"max_uses,omitempty"`
	CurrentUses       int             `json:"current_uses"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasUsesLeft reports whether the usage limit, if any, still allows a redemption.
func (c *Campaign) HasUsesLeft() bool {
	return c.MaxUses == nil || c.CurrentUses < *c.MaxUses
}

// InWindow reports whether now falls within [StartDate, EndDate].
func (c *Campaign) InWindow(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Eligible reports whether the campaign can discount an order of subtotal at now.
func (c *Campaign) Eligible(subtotal int64, now time.Time) bool {
	return c.Status == CampaignStatusActive &&
		c.InWindow(now) &&
		subtotal >= c.MinOrderAmount &&
		c.HasUsesLeft()
}

// CheckRedeemable returns the first reason a code cannot be redeemed, checked
// in the order status, end date, start date, minimum, usage.
func (c *Campaign) CheckRedeemable(subtotal int64, now time.Time) error {
	switch {
	case c.Status != CampaignStatusActive:
		return ErrDiscountInactive(c.Code)
	case now.After(c.EndDate):
		return ErrDiscountExpired(c.Code)
	case now.Before(c.StartDate):
		return ErrDiscountNotStarted(c.Code, c.StartDate)
	case subtotal < c.MinOrderAmount:
		return ErrDiscountBelowMinimum(c.Code, c.MinOrderAmount)
	case !c.HasUsesLeft():
		return ErrDiscountUsageExhausted(c.Code)
	}
	return nil
}

func IsValidDiscountType(t string) bool {
	return t == DiscountTypeFixed || t == DiscountTypePercentage
}

func IsValidCampaignStatus(s string) bool {
	return s == CampaignStatusActive || s == CampaignStatusInactive
}
