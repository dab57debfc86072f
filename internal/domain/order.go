package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Usage status tracks whether the order's campaign redemption reached the ledger.
const (
	UsageStatusNone       = "none"
	UsageStatusPending    = "pending"
	UsageStatusCounted    = "counted"
	UsageStatusUnrecorded = "unrecorded"
)

// Checkout states derived from order status.
const (
	CheckoutStateCollectingInfo  = "collecting_info"
	CheckoutStateAwaitingPayment = "awaiting_payment"
	CheckoutStateCompleted       = "completed"
	CheckoutStateCancelled       = "cancelled"
)

// validTransitions maps a status to the statuses an admin may move it to.
var validTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCompleted},
	OrderStatusDelivered:  {OrderStatusCompleted},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// CustomerInfo is what the shopper typed at checkout.
type CustomerInfo struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ReferralSource string `json:"referral_source"`
}

// Order is a checkout snapshot awaiting manual bank-transfer confirmation.
type Order struct {
	ID             string       `json:"id"`
	OrderNumber    string       `json:"order_number"`
	CustomerID     string       `json:"customer_id"`
	Items          []LineItem   `json:"items"`
	Subtotal       int64        `json:"subtotal"`
	DiscountCode   *string      `json:"discount_code,omitempty"`
	CampaignID     *string      `json:"campaign_id,omitempty"`
	DiscountAmount int64        `json:"discount_amount"`
	Total          int64        `json:"total"`
	Status         string       `json:"status"`
	CustomerInfo   CustomerInfo `json:"customer_info"`
	QRCodeURL      string       `json:"qr_code_url"`
	UsageStatus    string       `json:"usage_status"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CancelledAt    *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// UsesCampaign reports whether the order redeemed a campaign.
func (o *Order) UsesCampaign() bool {
	return o.CampaignID != nil && *o.CampaignID != ""
}

// IsTerminal reports whether no further transition is possible.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// CheckoutState maps the order status onto the checkout state machine.
func (o *Order) CheckoutState() string {
	if o == nil {
		return CheckoutStateCollectingInfo
	}
	switch o.Status {
	case OrderStatusCompleted:
		return CheckoutStateCompleted
	case OrderStatusCancelled:
		return CheckoutStateCancelled
	default:
		return CheckoutStateAwaitingPayment
	}
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidOrderStatus(s string) bool {
	_, ok := validTransitions[s]
	return ok
}

// NewOrderNumber returns "WS" followed by the last six digits of the
// millisecond clock and two random digits.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("WS%06d%02d", now.UnixMilli()%1_000_000, rand.IntN(100)) // #nosec G404 -- not a secret
}
