package domain

import "time"

// Customer status constants.
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// Customer is keyed by email and upserted on every checkout.
// CompletedOrders and CompletedSpent are maintained from order.completed events.
type Customer struct {
	ID              string     `json:"id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	ReferralSource  string     `json:"referral_source"`
	TotalOrders     int        `json:"total_orders"`
	TotalSpent      int64      `json:"total_spent"`
	CompletedOrders int        `json:"completed_orders"`
	CompletedSpent  int64      `json:"completed_spent"`
	LastOrderDate   *time.Time `json:"last_order_date,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func IsValidCustomerStatus(s string) bool {
	return s == CustomerStatusActive || s == CustomerStatusInactive
}
