package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trinhly333/worksheet/internal/domain"
	pkgkafka "github.com/trinhly333/worksheet/pkg/kafka"
	"github.com/trinhly333/worksheet/pkg/logger"
)

// Topics owned by the worksheet service.
var (
	TopicOrderCreated    = pkgkafka.Topic("order", "created")
	TopicOrderCompleted  = pkgkafka.Topic("order", "completed")
	TopicOrderCancelled  = pkgkafka.Topic("order", "cancelled")
	TopicCampaignCreated = pkgkafka.Topic("campaign", "created")
	TopicCampaignUpdated = pkgkafka.Topic("campaign", "updated")
	TopicCampaignDeleted = pkgkafka.Topic("campaign", "deleted")
)

const (
	AggregateTypeOrder    = "order"
	AggregateTypeCampaign = "campaign"

	Source = "worksheet"
)

// Publisher is the part of pkgkafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// OrderData is the order snapshot carried by every order event.
type OrderData struct {
	OrderID        string            `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	CustomerID     string            `json:"customer_id"`
	Status         string            `json:"status"`
	Items          []domain.LineItem `json:"items"`
	Subtotal       int64             `json:"subtotal"`
	DiscountCode   *string           `json:"discount_code,omitempty"`
	CampaignID     *string           `json:"campaign_id,omitempty"`
	DiscountAmount int64             `json:"discount_amount"`
	Total          int64             `json:"total"`
	UsageStatus    string            `json:"usage_status"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// CampaignData is the payload for campaign.* events.
type CampaignData struct {
	CampaignID string `json:"campaign_id"`
	Code       string `json:"code"`
	Status     string `json:"status,omitempty"`
}

// Producer publishes worksheet domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func newOrderData(o *domain.Order) OrderData {
	return OrderData{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		Status:         o.Status,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		DiscountCode:   o.DiscountCode,
		CampaignID:     o.CampaignID,
		DiscountAmount: o.DiscountAmount,
		Total:          o.Total,
		UsageStatus:    o.UsageStatus,
		OccurredAt:     o.UpdatedAt,
	}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, o.ID, AggregateTypeOrder, newOrderData(o))
}

func (p *Producer) PublishOrderCompleted(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCompleted, o.ID, AggregateTypeOrder, newOrderData(o))
}

func (p *Producer) PublishOrderCancelled(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCancelled, o.ID, AggregateTypeOrder, newOrderData(o))
}

func (p *Producer) PublishCampaignCreated(ctx context.Context, c *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignCreated, c.ID, AggregateTypeCampaign,
		CampaignData{CampaignID: c.ID, Code: c.Code, Status: c.Status})
}

func (p *Producer) PublishCampaignUpdated(ctx context.Context, c *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignUpdated, c.ID, AggregateTypeCampaign,
		CampaignData{CampaignID: c.ID, Code: c.Code, Status: c.Status})
}

func (p *Producer) PublishCampaignDeleted(ctx context.Context, id, code string) error {
	return p.publish(ctx, TopicCampaignDeleted, id, AggregateTypeCampaign,
		CampaignData{CampaignID: id, Code: code})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}
	if actor := logger.ActorFromContext(ctx); actor != "" {
		ev.WithMetadata("actor", actor)
	}

	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
