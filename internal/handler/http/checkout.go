package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/pkg/httputil"
)

// CheckoutHandler handles order placement and the public payment status poll.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	orders   *service.OrderService
	logger   *slog.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, orders *service.OrderService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		orders:   orders,
		logger:   logger,
	}
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	if !decode(w, r, &req) {
		return
	}

	order, err := h.checkout.Checkout(r.Context(), sessionIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// OrderStatus handles GET /api/v1/orders/{orderNumber}/status
func (h *CheckoutHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.GetStatus(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}
