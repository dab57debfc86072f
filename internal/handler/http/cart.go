package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/pkg/httputil"
)

// CartHandler handles HTTP requests for the storefront cart.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// cartView adds the derived totals to the stored cart.
type cartView struct {
	*domain.Cart
	ItemCount      int   `json:"item_count"`
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	Total          int64 `json:"total"`
}

func newCartView(c *domain.Cart) cartView {
	return cartView{
		Cart:           c,
		ItemCount:      c.ItemCount(),
		Subtotal:       c.Subtotal(),
		DiscountAmount: c.DiscountAmount(),
		Total:          c.Total(),
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartView(cart))
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), sessionIDFromContext(r.Context()))
	h.respond(w, r, cart, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Clear(r.Context(), sessionIDFromContext(r.Context()))
	h.respond(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.service.AddItem(r.Context(), sessionIDFromContext(r.Context()), req)
	h.respond(w, r, cart, err)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateQuantityInput
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.service.SetQuantity(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "productId"), req.Quantity)
	h.respond(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), sessionIDFromContext(r.Context()), chi.URLParam(r, "productId"))
	h.respond(w, r, cart, err)
}

// ApplyDiscount handles POST /api/v1/cart/discount
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req service.ApplyCodeInput
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.service.ApplyCode(r.Context(), sessionIDFromContext(r.Context()), req.Code)
	h.respond(w, r, cart, err)
}

// RemoveDiscount handles DELETE /api/v1/cart/discount
func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveDiscount(r.Context(), sessionIDFromContext(r.Context()))
	h.respond(w, r, cart, err)
}
