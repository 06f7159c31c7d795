package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

func (r *GormRepo) GetCart(ctx context.Context, operatorID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("operator_id = ?", operatorID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart merges quantity into an existing line for the same SKU.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("operator_id = ? AND sku = ?", item.OperatorID, item.SKU).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", item.Quantity),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("operator_id = ? AND sku = ?", item.OperatorID, item.SKU).First(item).Error
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) PatchCartItem(ctx context.Context, operatorID uint, sku string, req transport.PatchCartItemRequest) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("operator_id = ? AND sku = ?", operatorID, sku).
			First(&item).Error; err != nil {
			return err
		}

		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.ClearPrice {
			item.PriceOverride = nil
		} else if req.PriceOverride != nil {
			item.PriceOverride = req.PriceOverride
		}
		if req.ClearDiscount {
			item.DiscountOverride = nil
		} else if req.DiscountOverride != nil {
			item.DiscountOverride = req.DiscountOverride
		}

		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, operatorID uint, sku string) error {
	res := r.DB.WithContext(ctx).Where("operator_id = ? AND sku = ?", operatorID, sku).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, operatorID uint) error {
	return r.DB.WithContext(ctx).Where("operator_id = ?", operatorID).Delete(&models.CartItem{}).Error
}

// DeleteStaleCarts drops every cart whose newest line is older than before.
func (r *GormRepo) DeleteStaleCarts(ctx context.Context, before time.Time) (int64, error) {
	fresh := r.DB.Model(&models.CartItem{}).Select("operator_id").Where("updated_at >= ?", before)
	res := r.DB.WithContext(ctx).
		Where("operator_id NOT IN (?)", fresh).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
