package domain

import (
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

var now = time.Date(2025, 1, 29, 10, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func tet2024() *Campaign {
	return &Campaign{
		ID:             "c-tet",
		Code:           "TET2024",
		DiscountType:   DiscountTypeFixed,
		DiscountValue:  decimal.NewFromInt(50000),
		MinOrderAmount: 200000,
		MaxUses:        intPtr(100),
		StartDate:      now.Add(-24 * time.Hour),
		EndDate:        now.Add(24 * time.Hour),
		Status:         CampaignStatusActive,
	}
}

func TestCampaign_Eligible(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Campaign)
		subtotal int64
		at       time.Time
		want     bool
	}{
		{"eligible", func(*Campaign) {}, 250000, now, true},
		{"exactly minimum", func(*Campaign) {}, 200000, now, true},
		{"below minimum", func(*Campaign) {}, 199999, now, false},
		{"inactive", func(c *Campaign) { c.Status = CampaignStatusInactive }, 250000, now, false},
		{"before start", func(*Campaign) {}, 250000, now.Add(-48 * time.Hour), false},
		{"on end instant", func(*Campaign) {}, 250000, now.Add(24 * time.Hour), true},
		{"after end", func(*Campaign) {}, 250000, now.Add(25 * time.Hour), false},
		{"uses exhausted", func(c *Campaign) { c.CurrentUses = 100 }, 250000, now, false},
		{"unlimited uses", func(c *Campaign) { c.MaxUses = nil; c.CurrentUses = 5000 }, 250000, now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tet2024()
			tt.mutate(c)
			assert.Equal(t, tt.want, c.Eligible(tt.subtotal, tt.at))
		})
	}
}

func TestCampaign_CheckRedeemable_Order(t *testing.T) {
	// Inactive, expired, below minimum and exhausted at once: status is reported first.
	c := tet2024()
	c.Status = CampaignStatusInactive
	c.EndDate = now.Add(-time.Hour)
	c.CurrentUses = 100
	assert.ErrorIs(t, c.CheckRedeemable(1000, now), ErrCodeInactive)

	c.Status = CampaignStatusActive
	assert.ErrorIs(t, c.CheckRedeemable(1000, now), ErrCodeExpired)

	c.EndDate = now.Add(time.Hour)
	c.StartDate = now.Add(time.Minute)
	assert.ErrorIs(t, c.CheckRedeemable(1000, now), ErrCodeNotStarted)

	c.StartDate = now.Add(-time.Hour)
	err := c.CheckRedeemable(1000, now)
	assert.ErrorIs(t, err, ErrCodeBelowMinimum)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "200.000đ")
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)

	err = c.CheckRedeemable(250000, now)
	assert.ErrorIs(t, err, ErrCodeUsageExhausted)
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))

	c.CurrentUses = 99
	assert.NoError(t, c.CheckRedeemable(250000, now))
}

func TestDiscountErrors_MapToAppErrors(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{ErrDiscountNotFound("X"), CodeDiscountNotFound, http.StatusNotFound},
		{ErrDiscountInactive("X"), CodeDiscountInactive, http.StatusUnprocessableEntity},
		{ErrDiscountNotStarted("X", now), CodeDiscountNotStarted, http.StatusUnprocessableEntity},
		{ErrDiscountExpired("X"), CodeDiscountExpired, http.StatusUnprocessableEntity},
		{ErrDiscountBelowMinimum("X", 1), CodeDiscountBelowMinimum, http.StatusUnprocessableEntity},
		{ErrDiscountUsageExhausted("X"), CodeDiscountUsageExhausted, http.StatusConflict},
		{ErrPersistenceFailure("order", errors.New("db down")), CodePersistenceFailure, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			var appErr *apperrors.AppError
			require.ErrorAs(t, tt.err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, apperrors.HTTPStatus(tt.err))
		})
	}

	assert.True(t, IsDiscountError(ErrDiscountExpired("X")))
	assert.False(t, IsDiscountError(ErrPersistenceFailure("order", errors.New("x"))))
	assert.ErrorIs(t, ErrDiscountNotFound("X"), apperrors.ErrNotFound)
	assert.ErrorIs(t, ErrPersistenceFailure("order", errors.New("x")), apperrors.ErrServiceUnavail)
}

func TestCart_AddItemMergesDuplicates(t *testing.T) {
	c := &Cart{}
	c.AddItem(LineItem{ProductID: "p1", Name: "Spa template", UnitPrice: 100000, Quantity: 1})
	c.AddItem(LineItem{ProductID: "p1", Name: "Spa template", UnitPrice: 100000})

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, int64(200000), c.Subtotal())
	assert.Equal(t, 2, c.ItemCount())
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	c := &Cart{}
	c.AddItem(LineItem{ProductID: "p1", UnitPrice: 100000, Quantity: 1})
	c.AddItem(LineItem{ProductID: "p2", UnitPrice: 50000, Quantity: 2})

	assert.True(t, c.SetQuantity("p2", 3))
	assert.Equal(t, int64(250000), c.Subtotal())

	assert.True(t, c.SetQuantity("p1", 0))
	assert.Equal(t, -1, c.FindItem("p1"))
	assert.False(t, c.SetQuantity("missing", 2))
	assert.False(t, c.RemoveItem("p1"))

	assert.True(t, c.RemoveItem("p2"))
	assert.True(t, c.IsEmpty())
}

func TestCart_TotalNeverNegative(t *testing.T) {
	c := &Cart{Items: []LineItem{{ProductID: "p", UnitPrice: 10000, Quantity: 1}}}
	c.AppliedDiscount = &AppliedDiscount{ComputedAmount: 50000}
	assert.Equal(t, int64(0), c.Total())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusProcessing))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusCompleted))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCompleted, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusCompleted))
	assert.False(t, CanTransition("bogus", OrderStatusCompleted))
}

func TestOrder_CheckoutState(t *testing.T) {
	var none *Order
	assert.Equal(t, CheckoutStateCollectingInfo, none.CheckoutState())
	assert.Equal(t, CheckoutStateAwaitingPayment, (&Order{Status: OrderStatusShipped}).CheckoutState())
	assert.Equal(t, CheckoutStateCompleted, (&Order{Status: OrderStatusCompleted}).CheckoutState())
	assert.Equal(t, CheckoutStateCancelled, (&Order{Status: OrderStatusCancelled}).CheckoutState())
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.UnixMilli(1738144800123))
	assert.Regexp(t, regexp.MustCompile(`^WS\d{8}$`), n)
	assert.Equal(t, "WS800123", n[:8])
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "250.000đ", FormatVND(250000))
	assert.Equal(t, "0đ", FormatVND(0))
}

func TestFormatDate(t *testing.T) {
	// 20:00 UTC is already the next day in Vietnam.
	assert.Equal(t, "30/01/2025", FormatDate(time.Date(2025, 1, 29, 20, 0, 0, 0, time.UTC)))
}
