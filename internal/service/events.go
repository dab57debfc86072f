package service

import (
	"context"

	"github.com/trinhly333/worksheet/internal/domain"
)

// OrderEvents publishes order lifecycle events. *event.Producer implements it.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, o *domain.Order) error
	PublishOrderCompleted(ctx context.Context, o *domain.Order) error
	PublishOrderCancelled(ctx context.Context, o *domain.Order) error
}

// CampaignEvents publishes campaign catalog changes.
type CampaignEvents interface {
	PublishCampaignCreated(ctx context.Context, c *domain.Campaign) error
	PublishCampaignUpdated(ctx context.Context, c *domain.Campaign) error
	PublishCampaignDeleted(ctx context.Context, id, code string) error
}

// QRGenerator produces the bank-transfer QR image URL for an order.
type QRGenerator interface {
	ForOrder(orderNumber string, total int64) string
}
