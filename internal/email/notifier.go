package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trinhly333/worksheet/internal/domain"
)

// Notifier renders customer mail and hands it to a Sender.
type Notifier struct {
	renderer *Renderer
	sender   Sender
	support  Support
	logger   *slog.Logger
}

func NewNotifier(renderer *Renderer, sender Sender, support Support, logger *slog.Logger) *Notifier {
	return &Notifier{
		renderer: renderer,
		sender:   sender,
		support:  support,
		logger:   logger,
	}
}

// SendOrderConfirmation makes a single delivery attempt of the confirmation
// for a completed order and returns the provider message id.
func (n *Notifier) SendOrderConfirmation(ctx context.Context, o *domain.Order) (string, error) {
	msg, err := n.renderer.OrderConfirmation(NewOrderConfirmation(o, n.support))
	if err != nil {
		return "", fmt.Errorf("render order confirmation: %w", err)
	}

	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("send order confirmation via %s: %w", n.sender.Name(), err)
	}

	n.logger.InfoContext(ctx, "order confirmation sent",
		slog.String("order_number", o.OrderNumber),
		slog.String("provider", n.sender.Name()),
		slog.String("message_id", id),
	)
	return id, nil
}
