package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

// RefundCheck validates a new refund against its order and the refunds
// already recorded for it.
type RefundCheck func(order *models.Order, prior []models.RefundRequest) error

func (r *GormRepo) CreateRefund(ctx context.Context, refund *models.RefundRequest, check RefundCheck) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, refund.OrderID).Error; err != nil {
			return err
		}

		var prior []models.RefundRequest
		if err := tx.Preload("Items").
			Where("order_id = ? AND status <> ?", refund.OrderID, models.RefundRejected).
			Find(&prior).Error; err != nil {
			return err
		}

		if err := check(&order, prior); err != nil {
			return err
		}
		return tx.Create(refund).Error
	})
}

func (r *GormRepo) GetRefund(ctx context.Context, id uint) (*models.RefundRequest, error) {
	var refund models.RefundRequest
	if err := r.DB.WithContext(ctx).Preload("Items").First(&refund, id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *GormRepo) ListRefunds(ctx context.Context, status string, orderID uint, offset, limit int) (int64, []models.RefundRequest, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.RefundRequest{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if orderID != 0 {
			q = q.Where("order_id = ?", orderID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.RefundRequest
	if err := base().Preload("Items").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ReviewRefund moves a pending refund to approved or rejected.
func (r *GormRepo) ReviewRefund(ctx context.Context, id uint, to string, reviewer uint, note string) (*models.RefundRequest, error) {
	itemStatus := models.RefundItemApproved
	if to == models.RefundRejected {
		itemStatus = models.RefundItemRejected
	}

	var refund models.RefundRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&refund, id).Error; err != nil {
			return err
		}
		if refund.Status != models.RefundPending {
			return ErrStateConflict
		}

		now := time.Now().UTC()
		res := tx.Model(&models.RefundRequest{}).
			Where("id = ? AND status = ?", id, models.RefundPending).
			Updates(map[string]any{
				"status":      to,
				"review_note": note,
				"reviewed_by": reviewer,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}
		if err := tx.Model(&models.RefundItem{}).Where("refund_id = ?", id).Update("status", itemStatus).Error; err != nil {
			return err
		}
		return tx.Preload("Items").First(&refund, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

type ProcessResult struct {
	Refund    *models.RefundRequest
	Order     *models.Order
	Payment   *models.Payment
	Restocked []models.Product
}

// ProcessRefund settles an approved refund: restocks unopened items, writes
// the negative payment, updates the order payment status and the operator's
// active shift.
func (r *GormRepo) ProcessRefund(ctx context.Context, id uint, operatorID uint) (*ProcessResult, error) {
	var out ProcessResult

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refund models.RefundRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&refund, id).Error; err != nil {
			return err
		}
		if refund.Status != models.RefundApproved {
			return ErrStateConflict
		}

		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, refund.OrderID).Error; err != nil {
			return err
		}

		// refunds are approved independently, so the cap is rechecked here
		// against what has actually been paid out
		paidOut, err := processedRefundTotal(tx, order.ID)
		if err != nil {
			return err
		}
		if paidOut.Add(refund.Amount).GreaterThan(order.Total) {
			return ErrRefundExceedsTotal
		}

		for i := range refund.Items {
			item := &refund.Items[i]
			if item.Condition != models.ConditionUnopened {
				continue
			}
			prod, err := applyStockDelta(tx, item.SKU, item.Quantity, models.MovementRefund, refund.Number, operatorID)
			if err != nil {
				return err
			}
			if err := tx.Model(item).Update("status", models.RefundItemRestocked).Error; err != nil {
				return err
			}
			out.Restocked = append(out.Restocked, *prod)
		}

		now := time.Now().UTC()
		res := tx.Model(&models.RefundRequest{}).
			Where("id = ? AND status = ?", id, models.RefundApproved).
			Updates(map[string]any{"status": models.RefundProcessed, "processed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		refundID := refund.ID
		payment := models.Payment{
			OrderID:  order.ID,
			RefundID: &refundID,
			Kind:     models.PaymentKindRefund,
			Method:   order.PaymentMethod,
			Amount:   refund.Amount.Neg(),
			Tendered: decimal.Zero,
			Change:   decimal.Zero,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		refunded, err := processedRefundTotal(tx, order.ID)
		if err != nil {
			return err
		}
		status := models.PaymentStatusPartiallyRefunded
		if refunded.GreaterThanOrEqual(order.Total) {
			status = models.PaymentStatusRefunded
		}
		if err := tx.Model(&order).Update("payment_status", status).Error; err != nil {
			return err
		}

		shift, err := activeShiftForUpdate(tx, operatorID)
		if err != nil {
			return err
		}
		if shift != nil {
			updates := map[string]any{"refunds_total": shift.RefundsTotal.Add(refund.Amount)}
			if order.PaymentMethod == models.PaymentCash {
				updates["cash_refunds"] = shift.CashRefunds.Add(refund.Amount)
			}
			if err := tx.Model(shift).Updates(updates).Error; err != nil {
				return err
			}
		}

		if err := tx.Preload("Items").First(&refund, id).Error; err != nil {
			return err
		}
		if err := tx.First(&order, order.ID).Error; err != nil {
			return err
		}
		out.Refund = &refund
		out.Order = &order
		out.Payment = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func processedRefundTotal(tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := tx.Model(&models.RefundRequest{}).
		Where("order_id = ? AND status = ?", orderID, models.RefundProcessed).
		Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}
