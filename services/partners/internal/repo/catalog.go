package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type ProductFilter struct {
	Query    string
	Category string
	Active   *bool
	LowStock bool
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode = ?", like, like, f.Query)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.LowStock {
		q = q.Where("quantity <= min_quantity")
	}
	return q
}

func (r *GormRepo) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).
		Order("name ASC").Order("sku ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ProductsBySKU(ctx context.Context, skus []string) (map[string]models.Product, error) {
	return productsBySKU(r.DB.WithContext(ctx), skus)
}

func productsBySKU(db *gorm.DB, skus []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := db.Where("sku IN ?", skus).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.SKU] = p
	}
	return out, nil
}

func (r *GormRepo) LowStockProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Where("active = ? AND quantity <= min_quantity", true).
		Order("quantity ASC").Order("sku ASC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product, operatorID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("sku = ?", prod.SKU).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(prod).Error; err != nil {
			return err
		}
		if prod.Quantity == 0 {
			return nil
		}
		return tx.Create(&models.StockMovement{
			SKU:        prod.SKU,
			Delta:      prod.Quantity,
			Before:     0,
			After:      prod.Quantity,
			Reason:     models.MovementAdjustment,
			Reference:  "initial",
			OperatorID: operatorID,
		}).Error
	})
}

func (r *GormRepo) PatchProduct(ctx context.Context, sku string, req transport.PatchProductRequest) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("sku = ?", sku).First(&prod).Error; err != nil {
			return err
		}

		if req.Name != nil {
			prod.Name = *req.Name
		}
		if req.Category != nil {
			prod.Category = *req.Category
		}
		if req.Barcode != nil {
			prod.Barcode = *req.Barcode
		}
		if req.CostPrice != nil {
			prod.CostPrice = *req.CostPrice
		}
		if req.SalePrice != nil {
			prod.SalePrice = *req.SalePrice
		}
		if req.MinQuantity != nil {
			prod.MinQuantity = *req.MinQuantity
		}
		if req.Active != nil {
			prod.Active = *req.Active
		}

		return tx.Save(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeactivateProduct(ctx context.Context, sku string) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// applyStockDelta changes quantity on hand inside tx and records the movement.
// Negative deltas never take quantity below zero.
func applyStockDelta(tx *gorm.DB, sku string, delta int, reason, ref string, operatorID uint) (*models.Product, error) {
	q := tx.Model(&models.Product{}).Where("sku = ?", sku)
	if delta < 0 {
		q = q.Where("quantity >= ?", -delta)
	}
	res := q.Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}

	var prod models.Product
	if err := tx.Where("sku = ?", sku).First(&prod).Error; err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return &prod, ErrInsufficientStock
	}

	mv := models.StockMovement{
		SKU:        sku,
		Delta:      delta,
		Before:     prod.Quantity - delta,
		After:      prod.Quantity,
		Reason:     reason,
		Reference:  ref,
		OperatorID: operatorID,
	}
	if err := tx.Create(&mv).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) AdjustStock(ctx context.Context, sku string, delta int, reason, ref string, operatorID uint) (*models.Product, error) {
	var prod *models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		prod, err = applyStockDelta(tx, sku, delta, reason, ref, operatorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *GormRepo) ListMovements(ctx context.Context, sku string, offset, limit int) (int64, []models.StockMovement, error) {
	var total int64
	base := r.DB.WithContext(ctx).Model(&models.StockMovement{}).Where("sku = ?", sku)
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.StockMovement
	if err := r.DB.WithContext(ctx).Where("sku = ?", sku).
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// UpsertProducts applies an imported catalog in one transaction keyed by SKU.
func (r *GormRepo) UpsertProducts(ctx context.Context, rows []models.Product, operatorID uint) (ImportResult, error) {
	var res ImportResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := rows[i]
			var existing models.Product
			err := tx.Where("sku = ?", row.SKU).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				if row.Quantity != 0 {
					if err := tx.Create(&models.StockMovement{
						SKU: row.SKU, Delta: row.Quantity, Before: 0, After: row.Quantity,
						Reason: models.MovementImport, OperatorID: operatorID,
					}).Error; err != nil {
						return err
					}
				}
				res.Created++
			case err != nil:
				return err
			default:
				delta := row.Quantity - existing.Quantity
				existing.Name = row.Name
				existing.Category = row.Category
				existing.Barcode = row.Barcode
				existing.CostPrice = row.CostPrice
				existing.SalePrice = row.SalePrice
				existing.MinQuantity = row.MinQuantity
				existing.Active = row.Active
				if err := tx.Omit("quantity").Save(&existing).Error; err != nil {
					return err
				}
				if delta != 0 {
					if _, err := applyStockDelta(tx, row.SKU, delta, models.MovementImport, "", operatorID); err != nil {
						return err
					}
				}
				res.Updated++
			}
		}
		return nil
	})
	return res, err
}
