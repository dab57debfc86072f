package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
	pkgkafka "github.com/trinhly333/worksheet/pkg/kafka"
)

// ConsumerGroupID is the group of the customer-stats projector.
const ConsumerGroupID = "worksheet-customer-stats"

// CompletedOrderRecorder is the customer repository call the projector makes.
type CompletedOrderRecorder interface {
	RecordCompletedOrder(ctx context.Context, customerID string, total int64) error
}

// CustomerStatsProjector folds order.completed events into the customer's
// completed-order totals.
type CustomerStatsProjector struct {
	customers CompletedOrderRecorder
	logger    *slog.Logger
}

func NewCustomerStatsProjector(customers CompletedOrderRecorder, logger *slog.Logger) *CustomerStatsProjector {
	return &CustomerStatsProjector{customers: customers, logger: logger}
}

// Handle processes one event. Events for customers that no longer exist are
// dropped; any other failure is returned so the consumer retries.
func (p *CustomerStatsProjector) Handle(ctx context.Context, ev *pkgkafka.Event) error {
	if ev.EventType != TopicOrderCompleted {
		p.logger.WarnContext(ctx, "unexpected event type",
			slog.String("event_type", ev.EventType),
			slog.String("event_id", ev.EventID),
		)
		return nil
	}

	var data OrderData
	if err := ev.UnmarshalData(&data); err != nil {
		return err
	}
	if data.CustomerID == "" {
		return nil
	}

	if err := p.customers.RecordCompletedOrder(ctx, data.CustomerID, data.Total); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			p.logger.WarnContext(ctx, "completed order for unknown customer",
				slog.String("order_id", data.OrderID),
				slog.String("customer_id", data.CustomerID),
			)
			return nil
		}
		return fmt.Errorf("record completed order %s: %w", data.OrderID, err)
	}

	p.logger.InfoContext(ctx, "customer stats updated",
		slog.String("order_id", data.OrderID),
		slog.String("customer_id", data.CustomerID),
		slog.Int64("total", data.Total),
	)
	return nil
}

// NewCustomerStatsConsumer wires the projector behind the idempotency store
// and the dead-letter queue.
func NewCustomerStatsConsumer(
	brokers []string,
	group string,
	projector *CustomerStatsProjector,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	if group == "" {
		group = ConsumerGroupID
	}
	cfg := pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    TopicOrderCompleted,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	handler := pkgkafka.IdempotentHandler(store, projector.Handle, logger)
	return pkgkafka.NewConsumer(cfg, handler, logger).WithDLQ(dlq)
}
