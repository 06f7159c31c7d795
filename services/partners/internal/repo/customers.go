package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

func (r *GormRepo) ListCustomers(ctx context.Context, query string, offset, limit int) (int64, []models.Customer, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Customer{})
		if query != "" {
			like := "%" + strings.ToLower(query) + "%"
			q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Customer
	if err := base().Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.Phone != nil {
			var n int64
			if err := tx.Model(&models.Customer{}).Where("phone = ?", *c.Phone).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrDuplicate
			}
		}
		return tx.Create(c).Error
	})
}

func (r *GormRepo) DeleteCustomer(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Customer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
