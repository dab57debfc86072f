// Package pricing decides which campaign discounts a cart and by how much.
// Every function here is pure: the catalog and clock are passed in.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trinhly333/worksheet/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscountAmount prices campaign c against subtotal. Percentages are
// floored to whole đồng and capped by MaxDiscountAmount. The result is
// clamped to [0, subtotal].
func ComputeDiscountAmount(c *domain.Campaign, subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}

	var amount int64
	switch c.DiscountType {
	case domain.DiscountTypeFixed:
		amount = c.DiscountValue.Floor().IntPart()
	case domain.DiscountTypePercentage:
		amount = decimal.NewFromInt(subtotal).Mul(c.DiscountValue).Div(hundred).Floor().IntPart()
		if c.MaxDiscountAmount != nil && amount > *c.MaxDiscountAmount {
			amount = *c.MaxDiscountAmount
		}
	}

	return min(max(amount, 0), subtotal)
}

// FinalTotal is subtotal minus amount, never below zero.
func FinalTotal(subtotal, amount int64) int64 {
	return max(0, subtotal-amount)
}

// better reports whether a outranks b: larger amount, then lower minimum
// order, then earlier creation, then smaller id.
func better(a *domain.Campaign, amountA int64, b *domain.Campaign, amountB int64) bool {
	if amountA != amountB {
		return amountA > amountB
	}
	if a.MinOrderAmount != b.MinOrderAmount {
		return a.MinOrderAmount < b.MinOrderAmount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SelectBestCampaign returns the eligible campaign with the largest discount
// for subtotal at now, or nil.
func SelectBestCampaign(campaigns []domain.Campaign, subtotal int64, now time.Time) *domain.Campaign {
	var (
		best       *domain.Campaign
		bestAmount int64
	)
	for i := range campaigns {
		c := &campaigns[i]
		if !c.Eligible(subtotal, now) {
			continue
		}
		amount := ComputeDiscountAmount(c, subtotal)
		if best == nil || better(c, amount, best, bestAmount) {
			best, bestAmount = c, amount
		}
	}
	return best
}

// Snapshot builds the AppliedDiscount for c priced at subtotal.
func Snapshot(c *domain.Campaign, subtotal int64, source string) *domain.AppliedDiscount {
	return &domain.AppliedDiscount{
		CampaignID:     c.ID,
		Code:           c.Code,
		Name:           c.Name,
		DiscountType:   c.DiscountType,
		ComputedAmount: ComputeDiscountAmount(c, subtotal),
		Source:         source,
	}
}

// ValidateCode checks c for redemption against subtotal at now. A nil
// campaign means the code did not match anything.
func ValidateCode(code string, c *domain.Campaign, subtotal int64, now time.Time) (*domain.AppliedDiscount, error) {
	if c == nil {
		return nil, domain.ErrDiscountNotFound(code)
	}
	if err := c.CheckRedeemable(subtotal, now); err != nil {
		return nil, err
	}
	return Snapshot(c, subtotal, domain.DiscountSourceManual), nil
}

func findCampaign(campaigns []domain.Campaign, id string) *domain.Campaign {
	for i := range campaigns {
		if campaigns[i].ID == id {
			return &campaigns[i]
		}
	}
	return nil
}

// Reprice brings cart.AppliedDiscount in line with the cart contents after a
// mutation. prevSubtotal is the subtotal before the mutation; a change lifts
// any suppression left by RemoveDiscount.
//
// A manual code survives while its campaign stays eligible. Otherwise the best
// eligible campaign is applied automatically.
func Reprice(cart *domain.Cart, campaigns []domain.Campaign, prevSubtotal int64, now time.Time) {
	subtotal := cart.Subtotal()
	if subtotal != prevSubtotal {
		cart.DiscountSuppressed = false
	}

	if subtotal == 0 || cart.DiscountSuppressed {
		cart.AppliedDiscount = nil
		return
	}

	if applied := cart.AppliedDiscount; applied != nil && applied.Source == domain.DiscountSourceManual {
		if c := findCampaign(campaigns, applied.CampaignID); c != nil && c.Eligible(subtotal, now) {
			cart.AppliedDiscount = Snapshot(c, subtotal, domain.DiscountSourceManual)
			return
		}
		cart.AppliedDiscount = nil
	}

	best := SelectBestCampaign(campaigns, subtotal, now)
	if best == nil {
		cart.AppliedDiscount = nil
		return
	}
	cart.AppliedDiscount = Snapshot(best, subtotal, domain.DiscountSourceAuto)
}

// ApplyCode validates c for the cart and installs it as a manual discount.
// On error the cart is left untouched.
func ApplyCode(cart *domain.Cart, code string, c *domain.Campaign, now time.Time) error {
	applied, err := ValidateCode(code, c, cart.Subtotal(), now)
	if err != nil {
		return err
	}
	cart.AppliedDiscount = applied
	cart.DiscountSuppressed = false
	return nil
}

// RemoveDiscount clears the discount and keeps auto-apply off until the next
// subtotal change.
func RemoveDiscount(cart *domain.Cart) {
	cart.AppliedDiscount = nil
	cart.DiscountSuppressed = true
}
