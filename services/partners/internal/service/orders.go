package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
)

type OrderService struct {
	Repo      *repo.GormRepo
	Calc      *pricing.Calculator
	Devices   devices.Dispatcher
	Events    events.Publisher
	StoreName string
}

type OrderDetail struct {
	*models.Order
	Payments []models.Payment `json:"payments"`
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, f, offset, limit)
}

func (s *OrderService) Get(ctx context.Context, id uint) (*OrderDetail, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("order %d", id))
	}
	return s.detail(ctx, o)
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*OrderDetail, error) {
	o, err := s.Repo.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, translate(err, "order "+number)
	}
	return s.detail(ctx, o)
}

func (s *OrderService) detail(ctx context.Context, o *models.Order) (*OrderDetail, error) {
	payments, err := s.Repo.OrderPayments(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: o, Payments: payments}, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status, paymentStatus *string) (*models.Order, error) {
	if status == nil && paymentStatus == nil {
		return nil, fmt.Errorf("status or payment_status required: %w", ErrValidation)
	}
	if status != nil && !slices.Contains(models.OrderStatuses, *status) {
		return nil, fmt.Errorf("unknown order status %q: %w", *status, ErrValidation)
	}
	if paymentStatus != nil && !slices.Contains(models.PaymentStatuses, *paymentStatus) {
		return nil, fmt.Errorf("unknown payment status %q: %w", *paymentStatus, ErrValidation)
	}
	o, err := s.Repo.UpdateOrderStatus(ctx, id, status, paymentStatus)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("order %d", id))
	}

	afterCommit(ctx, "publish_order_status_changed", func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicOrders, o.Number, map[string]any{
			"type":           "order_status_changed",
			"order_id":       o.ID,
			"number":         o.Number,
			"status":         o.Status,
			"payment_status": o.PaymentStatus,
			"timestamp":      time.Now().UTC(),
		})
	})
	return o, nil
}

// Reprint sends the receipt of an existing order to the printer again.
func (s *OrderService) Reprint(ctx context.Context, id uint, cashier string) (*devices.Receipt, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var sale *models.Payment
	for i := range d.Payments {
		if d.Payments[i].Kind == models.PaymentKindSale {
			sale = &d.Payments[i]
			break
		}
	}
	r := devices.NewReceipt(s.StoreName, cashier, s.Calc.Rate, d.Order, sale)
	if err := s.Devices.PrintReceipt(ctx, r); err != nil {
		return nil, fmt.Errorf("print receipt: %w", err)
	}
	return &r, nil
}
