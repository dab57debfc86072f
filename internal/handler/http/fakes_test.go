package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// In-memory stand-ins for the Postgres repositories. Carts run against the
// real Redis repository over miniredis.

type memCampaigns struct {
	mu   sync.Mutex
	byID map[string]domain.Campaign
}

func newMemCampaigns(cs ...domain.Campaign) *memCampaigns {
	m := &memCampaigns{byID: make(map[string]domain.Campaign)}
	for _, c := range cs {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCampaigns) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Code, c.Code) {
			return apperrors.AlreadyExists("campaign", "code", c.Code)
		}
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memCampaigns) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("campaign", id)
	}
	return &c, nil
}

func (m *memCampaigns) GetByCode(_ context.Context, code string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if strings.EqualFold(c.Code, code) {
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("campaign", code)
}

func (m *memCampaigns) List(_ context.Context, _ repository.CampaignFilter) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Campaign, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memCampaigns) ListActive(_ context.Context, now time.Time) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.byID {
		if c.Status == domain.CampaignStatusActive && c.InWindow(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCampaigns) Update(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[c.ID]; !ok {
		return apperrors.NotFound("campaign", c.ID)
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memCampaigns) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.NotFound("campaign", id)
	}
	delete(m.byID, id)
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	byID map[string]domain.Order
}

func newMemOrders() *memOrders {
	return &memOrders{byID: make(map[string]domain.Order)}
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return &o, nil
}

func (m *memOrders) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.OrderNumber == number {
			return &o, nil
		}
	}
	return nil, apperrors.NotFound("order", number)
}

func (m *memOrders) List(_ context.Context, f repository.OrderFilter) ([]domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.byID {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id, from, to string, at time.Time) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	if o.Status != from {
		return nil, apperrors.Conflict("order status changed")
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case domain.OrderStatusCompleted:
		o.CompletedAt = &at
	case domain.OrderStatusCancelled:
		o.CancelledAt = &at
	}
	m.byID[id] = o
	return &o, nil
}

func (m *memOrders) SetUsageStatus(_ context.Context, id, usageStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	o.UsageStatus = usageStatus
	m.byID[id] = o
	return nil
}

func (m *memOrders) only() domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		return o
	}
	return domain.Order{}
}

type memCustomers struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Customer
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byEmail: make(map[string]*domain.Customer)}
}

func (m *memCustomers) UpsertByEmail(_ context.Context, info domain.CustomerInfo, at time.Time) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[info.Email]
	if !ok {
		c = &domain.Customer{
			ID:        uuid.New().String(),
			Email:     info.Email,
			Status:    domain.CustomerStatusActive,
			CreatedAt: at,
		}
		m.byEmail[info.Email] = c
	}
	c.FullName = info.FullName
	c.Phone = info.Phone
	c.UpdatedAt = at
	out := *c
	return &out, nil
}

func (m *memCustomers) RecordPlacedOrder(_ context.Context, id string, total int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			c.TotalOrders++
			c.TotalSpent += total
			c.LastOrderDate = &at
			return nil
		}
	}
	return apperrors.NotFound("customer", id)
}

func (m *memCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("customer", id)
}

func (m *memCustomers) List(_ context.Context, _ repository.CustomerFilter) ([]domain.Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Customer, 0, len(m.byEmail))
	for _, c := range m.byEmail {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memCustomers) UpdateStatus(_ context.Context, id, status string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			c.Status = status
			out := *c
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("customer", id)
}

func (m *memCustomers) RecordCompletedOrder(context.Context, string, int64) error { return nil }

// memLedger counts each order at most once against its campaign.
type memLedger struct {
	mu        sync.Mutex
	campaigns *memCampaigns
	counted   map[string]bool
}

func (m *memLedger) IncrementUsage(_ context.Context, orderID, campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counted[orderID] {
		return domain.ErrUsageAlreadyCounted
	}

	m.campaigns.mu.Lock()
	defer m.campaigns.mu.Unlock()
	c, ok := m.campaigns.byID[campaignID]
	if !ok {
		return apperrors.NotFound("campaign", campaignID)
	}
	if !c.HasUsesLeft() {
		return domain.ErrDiscountUsageExhausted(c.Code)
	}
	c.CurrentUses++
	m.campaigns.byID[campaignID] = c
	m.counted[orderID] = true
	return nil
}

type nopEvents struct{}

func (nopEvents) PublishOrderCreated(context.Context, *domain.Order) error { return nil }
func (nopEvents) PublishOrderCompleted(context.Context, *domain.Order) error { return nil }
func (nopEvents) PublishOrderCancelled(context.Context, *domain.Order) error { return nil }
func (nopEvents) PublishCampaignCreated(context.Context, *domain.Campaign) error { return nil }
func (nopEvents) PublishCampaignUpdated(context.Context, *domain.Campaign) error { return nil }
func (nopEvents) PublishCampaignDeleted(context.Context, string, string) error { return nil }

type stubQR struct{}

func (stubQR) ForOrder(orderNumber string, _ int64) string {
	return "https://qr.test/" + orderNumber
}

type countingMailer struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (m *countingMailer) SendOrderConfirmation(context.Context, *domain.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	if m.err != nil {
		return "", m.err
	}
	return "msg-1", nil
}
