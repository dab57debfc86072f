package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trinhly333/worksheet/internal/repository"
	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/pkg/httputil"
	"github.com/trinhly333/worksheet/pkg/middleware"
	"github.com/trinhly333/worksheet/pkg/pagination"
)

// OrderHandler handles admin order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// ListOrders handles GET /api/v1/admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.OrderFilter{
		Status:      optionalQuery(r, "status"),
		UsageStatus: optionalQuery(r, "usage_status"),
		Search:      r.URL.Query().Get("search"),
		Page:        params.Page,
		PerPage:     params.PerPage,
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writePage(w, orders, total, params)
}

// GetOrder handles GET /api/v1/admin/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// ConfirmOrder handles POST /api/v1/admin/orders/{id}/confirm
func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.service.Confirm)
}

// CancelOrder handles POST /api/v1/admin/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.service.Cancel)
}

// UpdateStatus handles PUT /api/v1/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateStatusInput
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// ReconcileUsage handles POST /api/v1/admin/orders/{id}/reconcile-usage
func (h *OrderHandler) ReconcileUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.ReconcileUsage(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

func (h *OrderHandler) change(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) (*service.StatusChange, error)) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	result, err := action(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "order status changed by admin",
		slog.String("order_id", id.String()),
		slog.String("status", result.Order.Status),
		slog.Bool("unchanged", result.Unchanged),
		slog.String("subject", middleware.SubjectFromContext(r.Context())),
	)

	httputil.WriteData(w, http.StatusOK, result)
}
