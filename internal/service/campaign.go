package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/pricing"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
	"github.com/trinhly333/worksheet/pkg/slug"
)

var maxPercentage = decimal.NewFromInt(100)

// CreateCampaignInput holds the parameters for creating a campaign.
type CreateCampaignInput struct {
	Name              string          `json:"name" validate:"required,notblank,max=200"`
	Description       string          `json:"description" validate:"max=2000"`
	Code              string          `json:"code" validate:"required,notblank,max=50"`
	DiscountType      string          `json:"discount_type" validate:"required,oneof=fixed percentage"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	MinOrderAmount    int64           `json:"min_order_amount" validate:"gte=0"`
	MaxDiscountAmount *int64          `json:"max_discount_amount" validate:"omitempty,gte=0"`
	MaxUses           *int            `json:"max_uses" validate:"omitempty,gte=1"`
	StartDate         time.Time       `json:"start_date" validate:"required"`
	EndDate           time.Time       `json:"end_date" validate:"required"`
	Status            string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateCampaignInput holds a partial update. Nil fields are left alone.
// ClearMaxDiscount and ClearMaxUses remove the cap and the limit.
type UpdateCampaignInput struct {
	Name              *string          `json:"name" validate:"omitempty,notblank,max=200"`
	Description       *string          `json:"description" validate:"omitempty,max=2000"`
	Code              *string          `json:"code" validate:"omitempty,notblank,max=50"`
	DiscountType      *string          `json:"discount_type" validate:"omitempty,oneof=fixed percentage"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinOrderAmount    *int64           `json:"min_order_amount" validate:"omitempty,gte=0"`
	MaxDiscountAmount *int64           `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ClearMaxDiscount  bool             `json:"clear_max_discount"`
	MaxUses           *int             `json:"max_uses" validate:"omitempty,gte=1"`
	ClearMaxUses      bool             `json:"clear_max_uses"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	Status            *string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CodeValidation is the storefront preview of a discount code.
type CodeValidation struct {
	Discount *domain.AppliedDiscount `json:"discount"`
	Subtotal int64                   `json:"subtotal"`
	Total    int64                   `json:"total"`
}

// CampaignService implements campaign administration and the public catalog.
type CampaignService struct {
	repo   repository.CampaignRepository
	events CampaignEvents
	logger *slog.Logger
	now    func() time.Time
}

func NewCampaignService(repo repository.CampaignRepository, events CampaignEvents, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateCampaign creates a new campaign. The code is upper-cased with
// diacritics stripped.
func (s *CampaignService) CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*domain.Campaign, error) {
	code := slug.Code(input.Code)
	if code == "" {
		return nil, apperrors.InvalidInput("code must contain letters or digits")
	}

	status := input.Status
	if status == "" {
		status = domain.CampaignStatusActive
	}

	now := s.now()
	campaign := &domain.Campaign{
		ID:                uuid.New().String(),
		Name:              input.Name,
		Description:       input.Description,
		Code:              code,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MaxUses:           input.MaxUses,
		StartDate:         input.StartDate.UTC(),
		EndDate:           input.EndDate.UTC(),
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	if err := s.events.PublishCampaignCreated(ctx, campaign); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.created event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("code", campaign.Code),
	)
	return campaign, nil
}

// GetCampaign retrieves a campaign by its ID.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return campaign, nil
}

// ListCampaigns returns a filtered, paginated list of campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, int, error) {
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, total, nil
}

// ListActiveCampaigns returns the campaigns currently running, for the
// storefront banner.
func (s *CampaignService) ListActiveCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	now := s.now()
	campaigns, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	// Sold-out campaigns stay in the window but are no longer on offer.
	out := campaigns[:0]
	for _, c := range campaigns {
		if c.HasUsesLeft() {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCampaign applies a partial update. current_uses is never changed here.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, input *UpdateCampaignInput) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign for update: %w", err)
	}

	if input.Name != nil {
		campaign.Name = *input.Name
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.Code != nil {
		code := slug.Code(*input.Code)
		if code == "" {
			return nil, apperrors.InvalidInput("code must contain letters or digits")
		}
		campaign.Code = code
	}
	if input.DiscountType != nil {
		campaign.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		campaign.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		campaign.MinOrderAmount = *input.MinOrderAmount
	}
	switch {
	case input.ClearMaxDiscount:
		campaign.MaxDiscountAmount = nil
	case input.MaxDiscountAmount != nil:
		campaign.MaxDiscountAmount = input.MaxDiscountAmount
	}
	switch {
	case input.ClearMaxUses:
		campaign.MaxUses = nil
	case input.MaxUses != nil:
		campaign.MaxUses = input.MaxUses
	}
	if input.StartDate != nil {
		campaign.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		campaign.EndDate = input.EndDate.UTC()
	}
	if input.Status != nil {
		campaign.Status = *input.Status
	}

	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}
	if campaign.MaxUses != nil && *campaign.MaxUses < campaign.CurrentUses {
		return nil, apperrors.InvalidInput(fmt.Sprintf("max uses must not be below current uses (%d)", campaign.CurrentUses))
	}

	campaign.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}

	if err := s.events.PublishCampaignUpdated(ctx, campaign); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.updated event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign updated",
		slog.String("campaign_id", campaign.ID),
		slog.String("code", campaign.Code),
	)
	return campaign, nil
}

// DeleteCampaign removes a campaign. Past orders keep their code.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get campaign for delete: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	if err := s.events.PublishCampaignDeleted(ctx, campaign.ID, campaign.Code); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.deleted event",
			slog.String("campaign_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign deleted",
		slog.String("campaign_id", id),
		slog.String("code", campaign.Code),
	)
	return nil
}

// ValidateCode previews a code against an arbitrary subtotal without
// touching any cart.
func (s *CampaignService) ValidateCode(ctx context.Context, code string, subtotal int64) (*CodeValidation, error) {
	if subtotal < 0 {
		return nil, apperrors.InvalidInput("subtotal must not be negative")
	}

	campaign, err := lookupCode(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}

	applied, err := pricing.ValidateCode(code, campaign, subtotal, s.now())
	if err != nil {
		recordRejection(err)
		return nil, err
	}

	return &CodeValidation{
		Discount: applied,
		Subtotal: subtotal,
		Total:    pricing.FinalTotal(subtotal, applied.ComputedAmount),
	}, nil
}

// lookupCode finds the campaign for a user-typed code. A miss returns a nil
// campaign and no error so that pricing.ValidateCode reports NotFound.
func lookupCode(ctx context.Context, repo repository.CampaignRepository, code string) (*domain.Campaign, error) {
	normalized := slug.Code(code)
	if normalized == "" {
		return nil, nil
	}
	campaign, err := repo.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get campaign by code: %w", err)
	}
	return campaign, nil
}

func recordRejection(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && domain.IsDiscountError(err) {
		discountRejections.WithLabelValues(appErr.Code).Inc()
	}
}

func validateCampaign(c *domain.Campaign) error {
	if !domain.IsValidDiscountType(c.DiscountType) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid discount type %q", c.DiscountType))
	}
	if !domain.IsValidCampaignStatus(c.Status) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid status %q", c.Status))
	}
	if !c.DiscountValue.IsPositive() {
		return apperrors.InvalidInput("discount value must be positive")
	}
	if c.DiscountType == domain.DiscountTypePercentage && c.DiscountValue.GreaterThan(maxPercentage) {
		return apperrors.InvalidInput("percentage discount must not exceed 100")
	}
	if c.DiscountType == domain.DiscountTypeFixed && !c.DiscountValue.Equal(c.DiscountValue.Floor()) {
		return apperrors.InvalidInput("fixed discount must be a whole amount")
	}
	if c.MinOrderAmount < 0 {
		return apperrors.InvalidInput("min order amount must not be negative")
	}
	if c.MaxDiscountAmount != nil && *c.MaxDiscountAmount < 0 {
		return apperrors.InvalidInput("max discount amount must not be negative")
	}
	if c.MaxUses != nil && *c.MaxUses < 1 {
		return apperrors.InvalidInput("max uses must be at least 1")
	}
	if !c.EndDate.After(c.StartDate) {
		return apperrors.InvalidInput("end date must be after start date")
	}
	return nil
}
