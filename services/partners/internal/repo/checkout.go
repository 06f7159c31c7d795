package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

// SaleBuilder prices a cart into an order and its payment. It runs inside the
// checkout transaction and must not touch the database.
type SaleBuilder func(cart []models.CartItem, products map[string]models.Product) (*models.Order, *models.Payment, error)

type CheckoutResult struct {
	Order   *models.Order
	Payment *models.Payment
	// Products holds the post-sale stock of every sold SKU.
	Products []models.Product
	Shift    *models.Shift
}

// Checkout commits a sale atomically: stock decrements with movements, the
// order and payment rows, the active shift aggregates and clearing the cart.
func (r *GormRepo) Checkout(ctx context.Context, operatorID uint, build SaleBuilder) (*CheckoutResult, error) {
	var out CheckoutResult

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart []models.CartItem
		if err := tx.Where("operator_id = ?", operatorID).Order("id ASC").Find(&cart).Error; err != nil {
			return err
		}
		if len(cart) == 0 {
			return ErrEmptyCart
		}

		skus := make([]string, 0, len(cart))
		for _, it := range cart {
			skus = append(skus, it.SKU)
		}
		products, err := productsBySKU(tx, skus)
		if err != nil {
			return err
		}

		order, payment, err := build(cart, products)
		if err != nil {
			return err
		}
		order.OperatorID = operatorID

		shift, err := activeShiftForUpdate(tx, operatorID)
		if err != nil {
			return err
		}
		if shift != nil {
			order.ShiftID = &shift.ID
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, line := range order.Items {
			prod, err := applyStockDelta(tx, line.SKU, -line.Quantity, models.MovementSale, order.Number, operatorID)
			if err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					return fmt.Errorf("sku %s: %w", line.SKU, err)
				}
				return err
			}
			out.Products = append(out.Products, *prod)
		}

		payment.OrderID = order.ID
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		if order.ShiftID != nil {
			updates := map[string]any{
				"total_sales":       shift.TotalSales.Add(order.Total),
				"transaction_count": shift.TransactionCount + 1,
			}
			if order.PaymentMethod == models.PaymentCash {
				updates["cash_sales"] = shift.CashSales.Add(order.Total)
			}
			if err := tx.Model(shift).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.First(shift, shift.ID).Error; err != nil {
				return err
			}
			out.Shift = shift
		}

		if err := tx.Where("operator_id = ?", operatorID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		out.Order = order
		out.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
