package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/search"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CheckoutService struct {
	Repo      *repo.GormRepo
	Calc      *pricing.Calculator
	Devices   devices.Dispatcher
	Events    events.Publisher
	IDs       *snowflake.Node
	StoreName string
	Index     search.Index
}

type CheckoutResult struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
	Change  decimal.Decimal `json:"change"`
}

type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       uint            `json:"order_id"`
	Number        string          `json:"number"`
	OperatorID    uint            `json:"operator_id"`
	ShiftID       *uint           `json:"shift_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Items         int             `json:"items"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Checkout turns the operator's cart into a completed order. Stock, order,
// payment, shift totals and the cart are committed together; printing and
// events run afterwards and never undo the sale.
func (s *CheckoutService) Checkout(ctx context.Context, operatorID uint, cashier string, req transport.CheckoutRequest) (*CheckoutResult, error) {
	l := logging.FromContext(ctx)

	var customer *models.Customer
	if req.CustomerID != nil {
		c, err := s.Repo.GetCustomer(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("customer %d does not exist: %w", *req.CustomerID, ErrValidation)
			}
			return nil, err
		}
		customer = c
	}
	if req.AmountTendered != nil && req.AmountTendered.IsNegative() {
		return nil, fmt.Errorf("amount_tendered must not be negative: %w", ErrValidation)
	}

	number := s.IDs.Generate().String()
	build := func(cart []models.CartItem, products map[string]models.Product) (*models.Order, *models.Payment, error) {
		lines := make([]pricing.Line, 0, len(cart))
		orderLines := make([]models.OrderLine, 0, len(cart))
		for _, it := range cart {
			p, ok := products[it.SKU]
			if !ok || !p.Active {
				return nil, nil, fmt.Errorf("product %s is no longer sold: %w", it.SKU, ErrValidation)
			}
			pl := pricingLine(it, p)
			if err := s.Calc.Validate(pl); err != nil {
				return nil, nil, fmt.Errorf("sku %s: %v: %w", it.SKU, err, ErrValidation)
			}
			lines = append(lines, pl)
			orderLines = append(orderLines, models.OrderLine{
				SKU:          it.SKU,
				Name:         p.Name,
				Quantity:     it.Quantity,
				UnitPrice:    pl.Price,
				UnitDiscount: pl.Discount,
				LineTotal:    pricing.LineTotal(pl).Round(2),
			})
		}

		exact, err := s.Calc.Compute(lines)
		if err != nil {
			return nil, nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		totals := exact.Round(2)

		tendered := totals.Total
		change := decimal.Zero
		if req.PaymentMethod == models.PaymentCash && req.AmountTendered != nil {
			tendered = *req.AmountTendered
			if tendered.LessThan(totals.Total) {
				return nil, nil, fmt.Errorf("tendered %s is less than total %s: %w",
					tendered.StringFixed(2), totals.Total.StringFixed(2), ErrValidation)
			}
			change = tendered.Sub(totals.Total)
		}

		order := &models.Order{
			Number:        number,
			Items:         orderLines,
			Subtotal:      totals.Subtotal,
			DiscountTotal: totals.DiscountTotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: models.PaymentStatusPaid,
			Status:        models.OrderStatusCompleted,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			CustomerPhone: strings.TrimSpace(req.CustomerPhone),
			CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		}
		if customer != nil {
			order.CustomerID = &customer.ID
			if order.CustomerName == "" {
				order.CustomerName = customer.Name
			}
			if order.CustomerPhone == "" && customer.Phone != nil {
				order.CustomerPhone = *customer.Phone
			}
			if order.CustomerEmail == "" {
				order.CustomerEmail = customer.Email
			}
		}

		payment := &models.Payment{
			Kind:     models.PaymentKindSale,
			Method:   req.PaymentMethod,
			Amount:   totals.Total,
			Tendered: tendered,
			Change:   change,
		}
		return order, payment, nil
	}

	res, err := s.Repo.Checkout(ctx, operatorID, build)
	if err != nil {
		return nil, translate(err, "checkout")
	}
	l.Info("checkout_committed", "order_id", res.Order.ID, "number", res.Order.Number, "total", res.Order.Total.StringFixed(2))

	s.afterSale(ctx, cashier, res)
	return &CheckoutResult{Order: res.Order, Payment: res.Payment, Change: res.Payment.Change}, nil
}

func (s *CheckoutService) afterSale(ctx context.Context, cashier string, res *repo.CheckoutResult) {
	order := res.Order

	afterCommit(ctx, "print_receipt", func(ctx context.Context) error {
		return s.Devices.PrintReceipt(ctx, devices.NewReceipt(s.StoreName, cashier, s.Calc.Rate, order, res.Payment))
	})
	if order.PaymentMethod == models.PaymentCash {
		afterCommit(ctx, "open_cash_drawer", s.Devices.OpenCashDrawer)
	}
	afterCommit(ctx, "publish_order_completed", func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicOrders, order.Number, OrderEvent{
			Type:          "order_completed",
			OrderID:       order.ID,
			Number:        order.Number,
			OperatorID:    order.OperatorID,
			ShiftID:       order.ShiftID,
			Total:         order.Total,
			PaymentMethod: order.PaymentMethod,
			Items:         len(order.Items),
			Timestamp:     time.Now().UTC(),
		})
	})

	var low []models.Product
	for _, p := range res.Products {
		if crossedThreshold(p, order.QuantityOf(p.SKU)) {
			low = append(low, p)
		}
		if s.Index != nil {
			p := p
			afterCommit(ctx, "index_product", func(ctx context.Context) error {
				return s.Index.IndexProduct(ctx, &p)
			})
		}
	}
	notifyLowStock(ctx, s.Devices, low)
}
