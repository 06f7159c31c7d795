package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

func (r *GormRepo) OpenShift(ctx context.Context, shift *models.Shift) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Shift{}).
			Where("operator_id = ? AND status = ?", shift.OperatorID, models.ShiftActive).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrStateConflict
		}
		if err := tx.Create(shift).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrStateConflict
			}
			return err
		}
		return nil
	})
}

// activeShiftForUpdate locks the operator's active shift. It returns nil
// when the operator has none.
func activeShiftForUpdate(tx *gorm.DB, operatorID uint) (*models.Shift, error) {
	var shifts []models.Shift
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("operator_id = ? AND status = ?", operatorID, models.ShiftActive).
		Limit(1).
		Find(&shifts)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(shifts) == 0 {
		return nil, nil
	}
	return &shifts[0], nil
}

func (r *GormRepo) ActiveShift(ctx context.Context, operatorID uint) (*models.Shift, error) {
	var shift models.Shift
	if err := r.DB.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, models.ShiftActive).
		First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// CloseShift locks the operator's active shift, lets settle fill in the
// closing figures and persists them.
func (r *GormRepo) CloseShift(ctx context.Context, operatorID uint, settle func(*models.Shift) error) (*models.Shift, error) {
	var shift models.Shift
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("operator_id = ? AND status = ?", operatorID, models.ShiftActive).
			First(&shift).Error; err != nil {
			return err
		}
		if err := settle(&shift); err != nil {
			return err
		}
		return tx.Save(&shift).Error
	})
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *GormRepo) GetShift(ctx context.Context, id uint) (*models.Shift, error) {
	var shift models.Shift
	if err := r.DB.WithContext(ctx).First(&shift, id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *GormRepo) ListShifts(ctx context.Context, operatorID uint, status string, offset, limit int) (int64, []models.Shift, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Shift{})
		if operatorID != 0 {
			q = q.Where("operator_id = ?", operatorID)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Shift
	if err := base().Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
