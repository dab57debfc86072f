package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trinhly333/worksheet/internal/domain"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

func newCampaignService(repo *mockCampaignRepository, events *mockCampaignEvents) *CampaignService {
	svc := NewCampaignService(repo, events, newTestLogger())
	svc.now = fixedClock
	return svc
}

func validCreateInput() *CreateCampaignInput {
	return &CreateCampaignInput{
		Name:           "Tết 2025",
		Code:           "  tết2025 ",
		DiscountType:   domain.DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(15),
		MinOrderAmount: 100000,
		StartDate:      testNow,
		EndDate:        testNow.AddDate(0, 1, 0),
	}
}

func TestCreateCampaign_NormalizesCodeAndPublishes(t *testing.T) {
	repo := new(mockCampaignRepository)
	events := new(mockCampaignEvents)
	svc := newCampaignService(repo, events)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)
	events.On("PublishCampaignCreated", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	c, err := svc.CreateCampaign(ctx, validCreateInput())

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "TET2025", c.Code)
	assert.Equal(t, domain.CampaignStatusActive, c.Status)
	assert.Equal(t, 0, c.CurrentUses)
	assert.Equal(t, testNow, c.CreatedAt)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCreateCampaign_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockCampaignRepository)
	events := new(mockCampaignEvents)
	svc := newCampaignService(repo, events)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil)
	events.On("PublishCampaignCreated", ctx, mock.Anything).Return(errors.New("broker down"))

	_, err := svc.CreateCampaign(ctx, validCreateInput())
	assert.NoError(t, err)
}

func TestCreateCampaign_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateCampaignInput)
		msg    string
	}{
		{"blank code after folding", func(in *CreateCampaignInput) { in.Code = " !! " }, "code"},
		{"percentage above 100", func(in *CreateCampaignInput) { in.DiscountValue = decimal.NewFromInt(101) }, "exceed 100"},
		{"zero value", func(in *CreateCampaignInput) { in.DiscountValue = decimal.Zero }, "positive"},
		{"fractional fixed", func(in *CreateCampaignInput) {
			in.DiscountType = domain.DiscountTypeFixed
			in.DiscountValue = decimal.RequireFromString("1000.5")
		}, "whole"},
		{"end before start", func(in *CreateCampaignInput) { in.EndDate = in.StartDate.Add(-1) }, "end date"},
		{"unknown type", func(in *CreateCampaignInput) { in.DiscountType = "bogo" }, "discount type"},
		{"negative max discount", func(in *CreateCampaignInput) { in.MaxDiscountAmount = int64Ptr(-1) }, "max discount"},
		{"zero max uses", func(in *CreateCampaignInput) { in.MaxUses = intPtr(0) }, "max uses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockCampaignRepository)
			svc := newCampaignService(repo, new(mockCampaignEvents))

			in := validCreateInput()
			tt.mutate(in)
			_, err := svc.CreateCampaign(context.Background(), in)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.msg)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateCampaign_DuplicateCode(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(apperrors.AlreadyExists("campaign", "code", "TET2025"))

	_, err := svc.CreateCampaign(ctx, validCreateInput())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestUpdateCampaign_PartialUpdate(t *testing.T) {
	repo := new(mockCampaignRepository)
	events := new(mockCampaignEvents)
	svc := newCampaignService(repo, events)
	ctx := context.Background()

	existing := welcome10()
	repo.On("GetByID", ctx, existing.ID).Return(&existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)
	events.On("PublishCampaignUpdated", ctx, mock.Anything).Return(nil)

	value := decimal.NewFromInt(20)
	updated, err := svc.UpdateCampaign(ctx, existing.ID, &UpdateCampaignInput{
		DiscountValue:    &value,
		ClearMaxDiscount: true,
		Status:           strPtr(domain.CampaignStatusInactive),
	})

	require.NoError(t, err)
	assert.True(t, updated.DiscountValue.Equal(value))
	assert.Nil(t, updated.MaxDiscountAmount)
	assert.Equal(t, domain.CampaignStatusInactive, updated.Status)
	assert.Equal(t, "WELCOME10", updated.Code)
	assert.Equal(t, testNow, updated.UpdatedAt)
	events.AssertExpectations(t)
}

func TestUpdateCampaign_MaxUsesBelowCurrentUses(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	existing := tet2024()
	existing.CurrentUses = 42
	repo.On("GetByID", ctx, existing.ID).Return(&existing, nil)

	_, err := svc.UpdateCampaign(ctx, existing.ID, &UpdateCampaignInput{MaxUses: intPtr(10)})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteCampaign_PublishesCode(t *testing.T) {
	repo := new(mockCampaignRepository)
	events := new(mockCampaignEvents)
	svc := newCampaignService(repo, events)
	ctx := context.Background()

	existing := tet2024()
	repo.On("GetByID", ctx, existing.ID).Return(&existing, nil)
	repo.On("Delete", ctx, existing.ID).Return(nil)
	events.On("PublishCampaignDeleted", ctx, existing.ID, "TET2024").Return(nil)

	require.NoError(t, svc.DeleteCampaign(ctx, existing.ID))
	events.AssertExpectations(t)
}

func TestDeleteCampaign_NotFound(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("campaign", "missing"))

	err := svc.DeleteCampaign(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestListActiveCampaigns_HidesSoldOut(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	soldOut := tet2024()
	soldOut.MaxUses = intPtr(100)
	soldOut.CurrentUses = 100
	repo.On("ListActive", ctx, testNow).Return([]domain.Campaign{soldOut, welcome10()}, nil)

	active, err := svc.ListActiveCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "WELCOME10", active[0].Code)
}

func TestValidateCode_Preview(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	c := tet2024()
	repo.On("GetByCode", ctx, "TET2024").Return(&c, nil)

	res, err := svc.ValidateCode(ctx, " tet2024 ", 250000)

	require.NoError(t, err)
	assert.Equal(t, int64(50000), res.Discount.ComputedAmount)
	assert.Equal(t, domain.DiscountSourceManual, res.Discount.Source)
	assert.Equal(t, int64(200000), res.Total)
}

func TestValidateCode_UnknownCode(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	repo.On("GetByCode", ctx, "NOPE").Return(nil, apperrors.NotFound("campaign", "NOPE"))

	_, err := svc.ValidateCode(ctx, "nope", 250000)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCodeNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestValidateCode_BelowMinimum(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	c := tet2024()
	repo.On("GetByCode", ctx, "TET2024").Return(&c, nil)

	_, err := svc.ValidateCode(ctx, "TET2024", 150000)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCodeBelowMinimum)
	assert.Contains(t, err.Error(), "200.000đ")
}

func TestValidateCode_StoreError(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newCampaignService(repo, new(mockCampaignEvents))
	ctx := context.Background()

	repo.On("GetByCode", ctx, "TET2024").Return(nil, errors.New("connection reset"))

	_, err := svc.ValidateCode(ctx, "TET2024", 250000)

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCodeNotFound)
}
