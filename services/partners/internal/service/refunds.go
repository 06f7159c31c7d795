package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type RefundService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Devices devices.Dispatcher
	IDs     *snowflake.Node
}

type RefundEvent struct {
	Type      string          `json:"type"`
	RefundID  uint            `json:"refund_id"`
	Number    string          `json:"number"`
	OrderID   uint            `json:"order_id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	ActorID   uint            `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// centsTolerance is the rounding gap allowed per defaulted refund item.
var centsTolerance = decimal.New(1, -2)

var refundableStatuses = map[string]bool{
	models.PaymentStatusPaid:              true,
	models.PaymentStatusPartiallyRefunded: true,
}

// netUnit is what one unit of a line cost the customer including tax.
func netUnit(o *models.Order, line models.OrderLine) decimal.Decimal {
	net := o.Subtotal.Sub(o.DiscountTotal)
	if net.IsZero() {
		return decimal.Zero
	}
	unit := line.UnitPrice.Sub(line.UnitDiscount)
	return unit.Mul(o.Total).Div(net)
}

// Create opens a pending refund request. Requested quantities and the amount
// are checked against what the order sold minus what earlier non-rejected
// refunds already claim. Missing amounts default to the proportional share of
// the order total; a defaulted refund that covers everything left gets
// exactly the unclaimed amount when the two differ only by rounding.
func (s *RefundService) Create(ctx context.Context, req transport.CreateRefundRequest, operatorID uint) (*models.RefundRequest, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("reason required: %w", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one item required: %w", ErrValidation)
	}

	refund := &models.RefundRequest{
		Number:  "R" + s.IDs.Generate().String(),
		OrderID: req.OrderID,
		Reason:  reason,
		Status:  models.RefundPending,
	}

	check := func(order *models.Order, prior []models.RefundRequest) error {
		if !refundableStatuses[order.PaymentStatus] {
			return fmt.Errorf("order payment status is %s: %w", order.PaymentStatus, ErrConflict)
		}

		claimed := map[string]int{}
		claimedAmount := decimal.Zero
		for _, p := range prior {
			claimedAmount = claimedAmount.Add(p.Amount)
			for _, it := range p.Items {
				claimed[it.SKU] += it.Quantity
			}
		}

		requested := map[string]int{}
		lines := map[string]models.OrderLine{}
		for _, l := range order.Items {
			lines[l.SKU] = l
		}

		items := make([]models.RefundItem, 0, len(req.Items))
		amount := decimal.Zero
		defaulted := true
		for _, it := range req.Items {
			sku := strings.TrimSpace(it.SKU)
			line, ok := lines[sku]
			if !ok {
				return fmt.Errorf("sku %s is not part of order %s: %w", sku, order.Number, ErrValidation)
			}
			if it.Quantity <= 0 {
				return fmt.Errorf("sku %s: quantity must be positive: %w", sku, ErrValidation)
			}
			requested[sku] += it.Quantity
			left := order.QuantityOf(sku) - claimed[sku]
			if requested[sku] > left {
				return fmt.Errorf("sku %s: %d requested, %d refundable: %w", sku, requested[sku], left, ErrValidation)
			}

			itemAmount := it.Amount
			if itemAmount.IsNegative() {
				return fmt.Errorf("sku %s: amount must not be negative: %w", sku, ErrValidation)
			}
			if itemAmount.IsZero() {
				itemAmount = netUnit(order, line).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			} else {
				defaulted = false
			}
			amount = amount.Add(itemAmount)
			items = append(items, models.RefundItem{
				SKU:       sku,
				Quantity:  it.Quantity,
				Amount:    itemAmount,
				Condition: it.Condition,
				Status:    models.RefundItemPending,
			})
		}

		unclaimed := order.Total.Sub(claimedAmount)
		coversAll := true
		for _, l := range order.Items {
			if claimed[l.SKU]+requested[l.SKU] < order.QuantityOf(l.SKU) {
				coversAll = false
				break
			}
		}
		if coversAll && defaulted {
			amount = absorbRounding(items, amount, unclaimed)
		}
		if amount.GreaterThan(unclaimed) {
			return fmt.Errorf("refund %s exceeds refundable %s: %w", amount.StringFixed(2), unclaimed.StringFixed(2), ErrValidation)
		}

		refund.Items = items
		refund.Amount = amount
		return nil
	}

	if err := s.Repo.CreateRefund(ctx, refund, check); err != nil {
		return nil, translate(err, fmt.Sprintf("order %d", req.OrderID))
	}

	s.publish(ctx, "refund_requested", refund, operatorID)
	return refund, nil
}

// absorbRounding moves the cent-level gap between the defaulted item amounts
// and the unclaimed order total onto the last item that can take it. Larger
// gaps come from explicit amounts on earlier refunds and are left alone.
func absorbRounding(items []models.RefundItem, amount, unclaimed decimal.Decimal) decimal.Decimal {
	diff := unclaimed.Sub(amount)
	if diff.IsZero() || diff.Abs().GreaterThan(centsTolerance.Mul(decimal.NewFromInt(int64(len(items))))) {
		return amount
	}
	for i := len(items) - 1; i >= 0; i-- {
		adjusted := items[i].Amount.Add(diff)
		if !adjusted.IsNegative() {
			items[i].Amount = adjusted
			return unclaimed
		}
	}
	return amount
}

func (s *RefundService) Get(ctx context.Context, id uint) (*models.RefundRequest, error) {
	r, err := s.Repo.GetRefund(ctx, id)
	return r, translate(err, fmt.Sprintf("refund %d", id))
}

func (s *RefundService) List(ctx context.Context, status string, orderID uint, offset, limit int) (int64, []models.RefundRequest, error) {
	return s.Repo.ListRefunds(ctx, status, orderID, offset, limit)
}

// Approve moves a pending refund to approved. Any other source state is an
// invalid transition.
func (s *RefundService) Approve(ctx context.Context, id, reviewer uint, note string) (*models.RefundRequest, error) {
	return s.review(ctx, id, models.RefundApproved, reviewer, note)
}

// Reject moves a pending refund to rejected.
func (s *RefundService) Reject(ctx context.Context, id, reviewer uint, note string) (*models.RefundRequest, error) {
	return s.review(ctx, id, models.RefundRejected, reviewer, note)
}

func (s *RefundService) review(ctx context.Context, id uint, to string, reviewer uint, note string) (*models.RefundRequest, error) {
	r, err := s.Repo.ReviewRefund(ctx, id, to, reviewer, strings.TrimSpace(note))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("refund %d", id))
	}
	s.publish(ctx, "refund_"+to, r, reviewer)
	return r, nil
}

// Process settles an approved refund and opens the cash drawer for cash
// orders.
func (s *RefundService) Process(ctx context.Context, id, operatorID uint) (*repo.ProcessResult, error) {
	res, err := s.Repo.ProcessRefund(ctx, id, operatorID)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("refund %d", id))
	}

	s.publish(ctx, "refund_processed", res.Refund, operatorID)
	if res.Order.PaymentMethod == models.PaymentCash {
		afterCommit(ctx, "open_cash_drawer", s.Devices.OpenCashDrawer)
	}
	return res, nil
}

func (s *RefundService) publish(ctx context.Context, typ string, r *models.RefundRequest, actor uint) {
	afterCommit(ctx, "publish_"+typ, func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicRefunds, r.Number, RefundEvent{
			Type:      typ,
			RefundID:  r.ID,
			Number:    r.Number,
			OrderID:   r.OrderID,
			Status:    r.Status,
			Amount:    r.Amount,
			ActorID:   actor,
			Timestamp: time.Now().UTC(),
		})
	})
}
