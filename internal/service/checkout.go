package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/pricing"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
	"github.com/trinhly333/worksheet/pkg/validator"
)

// CheckoutInput is the customer information collected at checkout.
type CheckoutInput struct {
	FullName       string `json:"full_name" validate:"required,notblank,max=200"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Phone          string `json:"phone" validate:"required,vnphone"`
	ReferralSource string `json:"referral_source" validate:"required,notblank,max=100"`
}

// CheckoutService turns a session cart into a pending order awaiting a bank
// transfer.
type CheckoutService struct {
	carts     repository.CartRepository
	campaigns repository.CampaignRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	events    OrderEvents
	qr        QRGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewCheckoutService(
	carts repository.CartRepository,
	campaigns repository.CampaignRepository,
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	events OrderEvents,
	qr QRGenerator,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		campaigns: campaigns,
		orders:    orders,
		customers: customers,
		events:    events,
		qr:        qr,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout places an order for the session's cart.
//
// The discount is re-evaluated against the live catalog first, so a code
// that expired while the shopper was typing is dropped and the best automatic
// campaign (if any) takes its place. The cart is cleared only once the order
// is stored.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, input CheckoutInput) (*domain.Order, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.ReferralSource = strings.TrimSpace(input.ReferralSource)
	if err := validator.Validate(&input); err != nil {
		checkoutsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.InvalidInput(err.Error())
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart == nil || cart.IsEmpty() {
		checkoutsTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	now := s.now()
	campaigns, err := s.campaigns.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	subtotal := cart.Subtotal()
	before := cart.AppliedDiscount
	pricing.Reprice(cart, campaigns, subtotal, now)
	if before != nil && (cart.AppliedDiscount == nil || cart.AppliedDiscount.CampaignID != before.CampaignID) {
		s.logger.WarnContext(ctx, "discount changed at checkout",
			slog.String("session_id", sessionID),
			slog.String("previous_code", before.Code),
		)
	}

	info := domain.CustomerInfo{
		FullName:       input.FullName,
		Email:          input.Email,
		Phone:          input.Phone,
		ReferralSource: input.ReferralSource,
	}

	order := &domain.Order{
		ID:             uuid.New().String(),
		Items:          cart.Items,
		Subtotal:       subtotal,
		DiscountAmount: cart.DiscountAmount(),
		Total:          cart.Total(),
		Status:         domain.OrderStatusPending,
		CustomerInfo:   info,
		UsageStatus:    domain.UsageStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if d := cart.AppliedDiscount; d != nil {
		code, campaignID := d.Code, d.CampaignID
		order.DiscountCode = &code
		order.CampaignID = &campaignID
		order.UsageStatus = domain.UsageStatusPending
	}

	customer, err := s.customers.UpsertByEmail(ctx, info, now)
	if err != nil {
		checkoutsTotal.WithLabelValues("persistence_failure").Inc()
		return nil, domain.ErrPersistenceFailure("customer", err)
	}
	order.CustomerID = customer.ID

	if err := s.createOrder(ctx, order); err != nil {
		checkoutsTotal.WithLabelValues("persistence_failure").Inc()
		return nil, domain.ErrPersistenceFailure("order", err)
	}

	if err := s.customers.RecordPlacedOrder(ctx, customer.ID, order.Total, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to add order to customer totals",
			slog.String("customer_id", customer.ID),
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()),
		)
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("session_id", sessionID),
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	checkoutsTotal.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total", order.Total),
		slog.Int64("discount", order.DiscountAmount),
	)
	return order, nil
}

// createOrder stores the order under a fresh number, drawing a second number
// once if the first is already taken.
func (s *CheckoutService) createOrder(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = domain.NewOrderNumber(s.now())
		order.QRCodeURL = s.qr.ForOrder(order.OrderNumber, order.Total)

		err = s.orders.Create(ctx, order)
		if err == nil || !errors.Is(err, apperrors.ErrAlreadyExists) {
			return err
		}
		s.logger.WarnContext(ctx, "order number collision, regenerating",
			slog.String("order_number", order.OrderNumber),
		)
	}
	return err
}
