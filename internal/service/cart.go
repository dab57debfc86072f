package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/pricing"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// Cart limits.
const (
	// MaxQuantityPerItem caps a single line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart caps the number of distinct products.
	MaxItemsPerCart = 50
	// MaxUnitPrice is the largest accepted unit price in VND.
	MaxUnitPrice = 100_000_000
)

// AddItemInput holds the parameters for adding a product to the cart.
// Quantity defaults to 1.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required,notblank,max=100"`
	Name      string `json:"name" validate:"required,notblank,max=300"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	ImageURL  string `json:"image_url" validate:"omitempty,url,max=2000"`
}

// UpdateQuantityInput holds the new quantity for a line. Zero removes it.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// ApplyCodeInput holds the discount code typed by the shopper.
type ApplyCodeInput struct {
	Code string `json:"code" validate:"required,notblank,max=50"`
}

// CartService implements the storefront cart. Every mutation re-runs the
// pricing engine and is saved with an optimistic version check.
type CartService struct {
	carts     repository.CartRepository
	campaigns repository.CampaignRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, campaigns repository.CampaignRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:     carts,
		campaigns: campaigns,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetCart retrieves the cart for a session. A session without a cart gets an
// empty, unsaved one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.load(ctx, sessionID)
}

// AddItem merges a product into the cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*domain.Cart, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.UnitPrice < 0 || input.UnitPrice > MaxUnitPrice {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unit price must be between 0 and %d", MaxUnitPrice))
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerItem))
	}

	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if i := cart.FindItem(input.ProductID); i >= 0 {
			if cart.Items[i].Quantity+qty > MaxQuantityPerItem {
				return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
			}
		} else if len(cart.Items) >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		cart.AddItem(domain.LineItem{
			ProductID: input.ProductID,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  qty,
			ImageURL:  input.ImageURL,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", qty),
	)
	return cart, nil
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if !cart.RemoveItem(productID) {
			return apperrors.NotFound("cart item", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)
	return cart, nil
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	return s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if !cart.SetQuantity(productID, quantity) {
			return apperrors.NotFound("cart item", productID)
		}
		return nil
	})
}

// Clear empties the cart and forgets the discount.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		cart.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))
	return cart, nil
}

// ApplyCode redeems a discount code on the cart. The code then takes
// precedence over automatic selection.
func (s *CartService) ApplyCode(ctx context.Context, sessionID, code string) (*domain.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidInput("discount code is required")
	}

	cart, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if cart.IsEmpty() {
			return apperrors.InvalidInput("cart is empty")
		}
		campaign, err := lookupCode(ctx, s.campaigns, code)
		if err != nil {
			return err
		}
		if err := pricing.ApplyCode(cart, code, campaign, s.now()); err != nil {
			recordRejection(err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "discount code applied",
		slog.String("session_id", sessionID),
		slog.String("code", code),
		slog.Int64("amount", cart.DiscountAmount()),
	)
	return cart, nil
}

// RemoveDiscount clears the discount. Automatic selection stays off until the
// subtotal next changes.
func (s *CartService) RemoveDiscount(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *domain.Cart) error {
		pricing.RemoveDiscount(cart)
		return nil
	})
}

// mutate loads the cart, applies fn, reprices against the live campaign
// catalog and saves with a version check.
func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version
	prevSubtotal := cart.Subtotal()
	prevDiscount := cart.AppliedDiscount

	if err := fn(cart); err != nil {
		return nil, err
	}

	now := s.now()
	campaigns, err := s.campaigns.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	pricing.Reprice(cart, campaigns, prevSubtotal, now)
	cart.UpdatedAt = now

	ok, err := s.carts.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, domain.ErrPersistenceFailure("cart", err)
	}
	if !ok {
		conflict := apperrors.Conflict("cart was modified concurrently, please retry")
		conflict.Err = domain.ErrVersionConflict
		return nil, conflict
	}

	if d := cart.AppliedDiscount; d != nil && (prevDiscount == nil ||
		prevDiscount.CampaignID != d.CampaignID || prevDiscount.Source != d.Source) {
		discountsApplied.WithLabelValues(d.Source).Inc()
	}
	return cart, nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		SessionID: sessionID,
		Items:     []domain.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
