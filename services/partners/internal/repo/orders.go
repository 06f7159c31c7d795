package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

type OrderFilter struct {
	Status        string
	PaymentStatus string
	OperatorID    uint
	ShiftID       uint
	From, To      time.Time
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.OperatorID != 0 {
		q = q.Where("operator_id = ?", f.OperatorID)
	}
	if f.ShiftID != 0 {
		q = q.Where("shift_id = ?", f.ShiftID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	return q
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Order{})).
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("number = ?", number).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderPayments(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var items []models.Payment
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status, paymentStatus *string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		updates := map[string]any{}
		if status != nil {
			updates["status"] = *status
		}
		if paymentStatus != nil {
			updates["payment_status"] = *paymentStatus
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&order, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
