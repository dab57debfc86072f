package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trinhly333/worksheet/internal/domain"
	"github.com/trinhly333/worksheet/internal/repository"
	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// UpdateCustomerStatusInput holds the new status for a customer.
type UpdateCustomerStatusInput struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// CustomerService implements admin customer management. Customers are created
// by checkout.
type CustomerService struct {
	repo   repository.CustomerRepository
	logger *slog.Logger
}

func NewCustomerService(repo repository.CustomerRepository, logger *slog.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger}
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, filter repository.CustomerFilter) ([]domain.Customer, int, error) {
	if filter.Status != nil && !domain.IsValidCustomerStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status filter %q", *filter.Status))
	}
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return customers, total, nil
}

// UpdateStatus activates or deactivates a customer.
func (s *CustomerService) UpdateStatus(ctx context.Context, id, status string) (*domain.Customer, error) {
	if !domain.IsValidCustomerStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}
	customer, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update customer status: %w", err)
	}

	s.logger.InfoContext(ctx, "customer status updated",
		slog.String("customer_id", id),
		slog.String("status", status),
	)
	return customer, nil
}
