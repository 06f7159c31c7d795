package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CustomerService struct {
	Repo *repo.GormRepo
}

func (s *CustomerService) List(ctx context.Context, q string, offset, limit int) (int64, []models.Customer, error) {
	return s.Repo.ListCustomers(ctx, strings.TrimSpace(q), offset, limit)
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, id)
	return c, translate(err, fmt.Sprintf("customer %d", id))
}

func (s *CustomerService) Create(ctx context.Context, req transport.CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	c := &models.Customer{
		Name:    name,
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
		Notes:   strings.TrimSpace(req.Notes),
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		c.Phone = &phone
	}
	if err := s.Repo.CreateCustomer(ctx, c); err != nil {
		return nil, translate(err, "customer with this phone")
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return translate(s.Repo.DeleteCustomer(ctx, id), fmt.Sprintf("customer %d", id))
}
