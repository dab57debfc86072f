package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
)

// --- Mock Repositories ---

type mockCampaignRepository struct{ mock.Mock }

func (m *mockCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) GetByCode(ctx context.Context, code string) (*domain.Campaign, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) List(ctx context.Context, f repository.CampaignFilter) ([]domain.Campaign, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Campaign), args.Int(1), args.Error(2)
}

func (m *mockCampaignRepository) ListActive(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Copy so that callers cannot mutate the fixture between calls.
	src := args.Get(0).([]domain.Campaign)
	return append([]domain.Campaign(nil), src...), args.Error(1)
}

func (m *mockCampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaignRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCartRepository struct{ mock.Mock }

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) (bool, error) {
	args := m.Called(ctx, cart, expected)
	if args.Bool(0) {
		cart.Version = expected + 1
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockOrderRepository struct{ mock.Mock }

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (*domain.Order, error) {
	args := m.Called(ctx, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) SetUsageStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockCustomerRepository struct{ mock.Mock }

func (m *mockCustomerRepository) UpsertByEmail(ctx context.Context, info domain.CustomerInfo, at time.Time) (*domain.Customer, error) {
	args := m.Called(ctx, info, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) List(ctx context.Context, f repository.CustomerFilter) ([]domain.Customer, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Customer), args.Int(1), args.Error(2)
}

func (m *mockCustomerRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Customer, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) RecordPlacedOrder(ctx context.Context, id string, total int64, at time.Time) error {
	return m.Called(ctx, id, total, at).Error(0)
}

func (m *mockCustomerRepository) RecordCompletedOrder(ctx context.Context, id string, total int64) error {
	return m.Called(ctx, id, total).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) IncrementUsage(ctx context.Context, orderID, campaignID string) error {
	return m.Called(ctx, orderID, campaignID).Error(0)
}

// --- Mock Collaborators ---

type mockOrderEvents struct{ mock.Mock }

func (m *mockOrderEvents) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderEvents) PublishOrderCompleted(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderEvents) PublishOrderCancelled(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

type mockCampaignEvents struct{ mock.Mock }

func (m *mockCampaignEvents) PublishCampaignCreated(ctx context.Context, c *domain.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaignEvents) PublishCampaignUpdated(ctx context.Context, c *domain.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCampaignEvents) PublishCampaignDeleted(ctx context.Context, id, code string) error {
	return m.Called(ctx, id, code).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendOrderConfirmation(ctx context.Context, o *domain.Order) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

type stubQR struct{}

func (stubQR) ForOrder(orderNumber string, _ int64) string {
	return "https://qr.test/" + orderNumber
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 1, 29, 3, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// tet2024 is 50,000đ off orders of at least 200,000đ.
func tet2024() domain.Campaign {
	return domain.Campaign{
		ID:             "camp-tet",
		Name:           "Tết 2024",
		Code:           "TET2024",
		DiscountType:   domain.DiscountTypeFixed,
		DiscountValue:  decimal.NewFromInt(50000),
		MinOrderAmount: 200000,
		StartDate:      testNow.AddDate(0, -1, 0),
		EndDate:        testNow.AddDate(0, 1, 0),
		Status:         domain.CampaignStatusActive,
		CreatedAt:      testNow.AddDate(0, -2, 0),
	}
}

// welcome10 is 10% off capped at 20,000đ, no minimum.
func welcome10() domain.Campaign {
	return domain.Campaign{
		ID:                "camp-welcome",
		Name:              "Welcome",
		Code:              "WELCOME10",
		DiscountType:      domain.DiscountTypePercentage,
		DiscountValue:     decimal.NewFromInt(10),
		MaxDiscountAmount: int64Ptr(20000),
		StartDate:         testNow.AddDate(0, -1, 0),
		EndDate:           testNow.AddDate(0, 1, 0),
		Status:            domain.CampaignStatusActive,
		CreatedAt:         testNow.AddDate(0, -2, 0),
	}
}

func lineItem(id string, price int64, qty int) domain.LineItem {
	return domain.LineItem{ProductID: id, Name: "Mẫu " + id, UnitPrice: price, Quantity: qty}
}

func cartWith(version int, items ...domain.LineItem) *domain.Cart {
	return &domain.Cart{
		SessionID: "sess-1",
		Items:     items,
		Version:   version,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}
