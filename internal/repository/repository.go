package repository

import (
	"context"
	"time"

	"github.com/trinhly333/worksheet/internal/domain"
)

// CampaignFilter defines filter criteria for listing campaigns.
type CampaignFilter struct {
	Status  *string
	Search  string
	Page    int
	PerPage int
}

// OrderFilter defines filter criteria for listing orders. Search matches the
// order number or customer email.
type OrderFilter struct {
	Status      *string
	UsageStatus *string
	Search      string
	Page        int
	PerPage     int
}

// CustomerFilter defines filter criteria for listing customers. Search
// matches name, email or phone.
type CustomerFilter struct {
	Status  *string
	Search  string
	Page    int
	PerPage int
}

// CampaignRepository defines the interface for campaign persistence operations.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)

	// GetByCode matches case-insensitively.
	GetByCode(ctx context.Context, code string) (*domain.Campaign, error)

	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, int, error)

	// ListActive returns active campaigns whose date window contains now.
	ListActive(ctx context.Context, now time.Time) ([]domain.Campaign, error)

	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order from status `from` to `to` only if it is
	// still in `from`, stamping completed_at or cancelled_at as appropriate.
	// A lost race returns an ErrConflict.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (*domain.Order, error)

	SetUsageStatus(ctx context.Context, id, usageStatus string) error
}

// CustomerRepository defines the interface for customer persistence operations.
type CustomerRepository interface {
	// UpsertByEmail creates the customer or refreshes its contact details.
	// Order totals are left untouched.
	UpsertByEmail(ctx context.Context, info domain.CustomerInfo, at time.Time) (*domain.Customer, error)

	// RecordPlacedOrder adds one stored order of total to the running totals.
	RecordPlacedOrder(ctx context.Context, customerID string, total int64, at time.Time) error

	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, int, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Customer, error)

	// RecordCompletedOrder adds a completed order of total to the customer's stats.
	RecordCompletedOrder(ctx context.Context, customerID string, total int64) error
}

// LedgerRepository counts campaign redemptions.
type LedgerRepository interface {
	// IncrementUsage marks the order's redemption counted and bumps the
	// campaign counter in one transaction. It returns
	// domain.ErrUsageAlreadyCounted when the order was counted before and a
	// usage-exhausted error when the campaign has no uses left.
	IncrementUsage(ctx context.Context, orderID, campaignID string) error
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// SaveIfVersion writes the cart only if the stored version still equals
	// expectedVersion, bumping cart.Version. It reports false on a mismatch.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	Delete(ctx context.Context, sessionID string) error
}
