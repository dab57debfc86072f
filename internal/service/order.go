package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// ConfirmationMailer sends the order confirmation email. *email.Notifier
// implements it.
type ConfirmationMailer interface {
	SendOrderConfirmation(ctx context.Context, o *domain.Order) (string, error)
}

// Notice is a non-fatal problem reported alongside a successful status change.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusChange is the outcome of an admin action on an order.
type StatusChange struct {
	Order     *domain.Order `json:"order"`
	Unchanged bool          `json:"unchanged"`

	// Set by Confirm only.
	EmailSent      bool    `json:"email_sent"`
	EmailMessageID string  `json:"email_message_id,omitempty"`
	EmailError     *Notice `json:"email_error,omitempty"`
	UsageWarning   *Notice `json:"usage_warning,omitempty"`
}

// OrderStatusView is what the storefront polls while waiting for payment.
type OrderStatusView struct {
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	CheckoutState string `json:"checkout_state"`
	Total         int64  `json:"total"`
	QRCodeURL     string `json:"qr_code_url"`
}

// UpdateStatusInput holds the target status for an admin transition.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered completed cancelled"`
}

// OrderService implements admin order management: payment confirmation,
// cancellation and the campaign usage ledger.
type OrderService struct {
	orders repository.OrderRepository
	ledger repository.LedgerRepository
	mailer ConfirmationMailer
	events OrderEvents
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	ledger repository.LedgerRepository,
	mailer ConfirmationMailer,
	events OrderEvents,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders: orders,
		ledger: ledger,
		mailer: mailer,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetOrder retrieves an order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetStatus returns the public payment status of an order.
func (s *OrderService) GetStatus(ctx context.Context, orderNumber string) (*OrderStatusView, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return &OrderStatusView{
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		CheckoutState: order.CheckoutState(),
		Total:         order.Total,
		QRCodeURL:     order.QRCodeURL,
	}, nil
}

// ListOrders returns a filtered, paginated list of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != nil && !domain.IsValidOrderStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status filter %q", *filter.Status))
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// Confirm marks an order paid.
//
// The status update is conditional on the status read, so two admins
// confirming at once complete the order once. Campaign usage is counted after
// completion; a ledger failure flags the order unrecorded instead of undoing
// the completion. One confirmation email is attempted.
func (s *OrderService) Confirm(ctx context.Context, id string) (*StatusChange, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for confirm: %w", err)
	}

	switch order.Status {
	case domain.OrderStatusCompleted:
		return &StatusChange{Order: order, Unchanged: true}, nil
	case domain.OrderStatusCancelled:
		return nil, apperrors.Conflict("order is cancelled and cannot be confirmed")
	}

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, domain.OrderStatusCompleted, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.afterLostRace(ctx, id, domain.OrderStatusCompleted, err)
		}
		return nil, fmt.Errorf("complete order: %w", err)
	}
	ordersConfirmed.Inc()

	result := &StatusChange{Order: updated}

	if updated.UsesCampaign() {
		result.UsageWarning = s.countUsage(ctx, updated)
	}

	msgID, err := s.mailer.SendOrderConfirmation(ctx, updated)
	if err != nil {
		emailFailures.Inc()
		s.logger.ErrorContext(ctx, "confirmation email failed",
			slog.String("order_id", updated.ID),
			slog.String("order_number", updated.OrderNumber),
			slog.String("error", err.Error()),
		)
		result.EmailError = &Notice{
			Code:    domain.CodeEmailDeliveryFailure,
			Message: "Không gửi được email xác nhận, vui lòng liên hệ khách hàng trực tiếp",
		}
	} else {
		result.EmailSent = true
		result.EmailMessageID = msgID
	}

	if err := s.events.PublishOrderCompleted(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.completed event",
			slog.String("order_id", updated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order confirmed",
		slog.String("order_id", updated.ID),
		slog.String("order_number", updated.OrderNumber),
		slog.String("usage_status", updated.UsageStatus),
		slog.Bool("email_sent", result.EmailSent),
	)
	return result, nil
}

// Cancel cancels an order that has not been completed. Campaign usage is
// untouched since it is only counted on completion.
func (s *OrderService) Cancel(ctx context.Context, id string) (*StatusChange, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for cancel: %w", err)
	}

	switch order.Status {
	case domain.OrderStatusCancelled:
		return &StatusChange{Order: order, Unchanged: true}, nil
	case domain.OrderStatusCompleted:
		return nil, apperrors.Conflict("order is completed and cannot be cancelled")
	}

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, domain.OrderStatusCancelled, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.afterLostRace(ctx, id, domain.OrderStatusCancelled, err)
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := s.events.PublishOrderCancelled(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
			slog.String("order_id", updated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", updated.ID),
		slog.String("order_number", updated.OrderNumber),
	)
	return &StatusChange{Order: updated}, nil
}

// UpdateStatus moves an order along the transition table. Completion and
// cancellation go through Confirm and Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*StatusChange, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}

	switch status {
	case domain.OrderStatusCompleted:
		return s.Confirm(ctx, id)
	case domain.OrderStatusCancelled:
		return s.Cancel(ctx, id)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}
	if order.Status == status {
		return &StatusChange{Order: order, Unchanged: true}, nil
	}
	if !domain.CanTransition(order.Status, status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, status))
	}

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, status, s.now())
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("from", order.Status),
		slog.String("to", status),
	)
	return &StatusChange{Order: updated}, nil
}

// ReconcileUsage retries the ledger increment for a completed order whose
// usage was left unrecorded. A completed order still marked pending is also
// accepted: the unrecorded flag itself may have failed to persist.
func (s *OrderService) ReconcileUsage(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for reconcile: %w", err)
	}
	if !order.UsesCampaign() {
		return nil, apperrors.InvalidInput("order did not use a campaign")
	}

	switch order.UsageStatus {
	case domain.UsageStatusCounted:
		return order, nil
	case domain.UsageStatusUnrecorded:
	case domain.UsageStatusPending:
		if order.Status != domain.OrderStatusCompleted {
			return nil, apperrors.Conflict("usage of an order that is not completed cannot be reconciled")
		}
	default:
		return nil, apperrors.Conflict(fmt.Sprintf("usage is %q and cannot be reconciled", order.UsageStatus))
	}

	err = s.ledger.IncrementUsage(ctx, order.ID, *order.CampaignID)
	if err != nil && !errors.Is(err, domain.ErrUsageAlreadyCounted) {
		return nil, fmt.Errorf("reconcile usage: %w", err)
	}
	order.UsageStatus = domain.UsageStatusCounted

	s.logger.InfoContext(ctx, "campaign usage reconciled",
		slog.String("order_id", order.ID),
		slog.String("campaign_id", *order.CampaignID),
	)
	return order, nil
}

// countUsage runs the ledger increment for a freshly completed order and
// returns a warning when it could not be recorded.
func (s *OrderService) countUsage(ctx context.Context, order *domain.Order) *Notice {
	err := s.ledger.IncrementUsage(ctx, order.ID, *order.CampaignID)
	if err == nil || errors.Is(err, domain.ErrUsageAlreadyCounted) {
		order.UsageStatus = domain.UsageStatusCounted
		return nil
	}

	ledgerFailures.Inc()
	s.logger.ErrorContext(ctx, "campaign usage not recorded",
		slog.String("order_id", order.ID),
		slog.String("campaign_id", *order.CampaignID),
		slog.String("error", err.Error()),
	)

	if setErr := s.orders.SetUsageStatus(ctx, order.ID, domain.UsageStatusUnrecorded); setErr != nil {
		s.logger.ErrorContext(ctx, "failed to flag order usage unrecorded",
			slog.String("order_id", order.ID),
			slog.String("error", setErr.Error()),
		)
	}
	order.UsageStatus = domain.UsageStatusUnrecorded

	notice := &Notice{Code: "USAGE_UNRECORDED", Message: "campaign usage could not be recorded, reconcile later"}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && domain.IsDiscountError(err) {
		notice.Code = appErr.Code
		notice.Message = appErr.Message
	}
	return notice
}

// afterLostRace re-reads an order whose conditional update lost to another
// writer. Reaching the same target counts as done.
func (s *OrderService) afterLostRace(ctx context.Context, id, target string, cause error) (*StatusChange, error) {
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload order after conflict: %w", err)
	}
	if current.Status == target {
		return &StatusChange{Order: current, Unchanged: true}, nil
	}
	return nil, fmt.Errorf("update order status: %w", cause)
}
