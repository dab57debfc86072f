package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trinhly333/worksheet/internal/repository"
	"github.com/trinhly333/worksheet/internal/service"
	"github.com/trinhly333/worksheet/pkg/httputil"
	"github.com/trinhly333/worksheet/pkg/pagination"
)

// CustomerHandler handles admin customer endpoints.
type CustomerHandler struct {
	service *service.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(svc *service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: svc,
		logger:  logger,
	}
}

// ListCustomers handles GET /api/v1/admin/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.CustomerFilter{
		Status:  optionalQuery(r, "status"),
		Search:  r.URL.Query().Get("search"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	customers, total, err := h.service.ListCustomers(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writePage(w, customers, total, params)
}

// GetCustomer handles GET /api/v1/admin/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, customer)
}

// UpdateStatus handles PUT /api/v1/admin/customers/{id}/status
func (h *CustomerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateCustomerStatusInput
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.service.UpdateStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, customer)
}
