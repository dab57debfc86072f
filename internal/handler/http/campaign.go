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

// CampaignHandler handles HTTP requests for campaign endpoints.
type CampaignHandler struct {
	service *service.CampaignService
	logger  *slog.Logger
}

// NewCampaignHandler creates a new campaign HTTP handler.
func NewCampaignHandler(svc *service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: svc,
		logger:  logger,
	}
}

// ValidateCodeRequest is the JSON request body for previewing a code.
type ValidateCodeRequest struct {
	Code     string `json:"code" validate:"required,notblank,max=50"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

// CreateCampaign handles POST /api/v1/admin/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignInput
	if !decode(w, r, &req) {
		return
	}

	campaign, err := h.service.CreateCampaign(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, campaign)
}

// ListCampaigns handles GET /api/v1/admin/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.CampaignFilter{
		Status:  optionalQuery(r, "status"),
		Search:  r.URL.Query().Get("search"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	campaigns, total, err := h.service.ListCampaigns(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writePage(w, campaigns, total, params)
}

// GetCampaign handles GET /api/v1/admin/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, campaign)
}

// UpdateCampaign handles PUT /api/v1/admin/campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.UpdateCampaignInput
	if !decode(w, r, &req) {
		return
	}

	campaign, err := h.service.UpdateCampaign(r.Context(), id.String(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, campaign)
}

// DeleteCampaign handles DELETE /api/v1/admin/campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListActiveCampaigns handles GET /api/v1/campaigns/active
func (h *CampaignHandler) ListActiveCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListActiveCampaigns(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, campaigns)
}

// ValidateCode handles POST /api/v1/discounts/validate
func (h *CampaignHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req ValidateCodeRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.ValidateCode(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}
