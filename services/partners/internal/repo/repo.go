package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStateConflict     = errors.New("state conflict")
	ErrDuplicate         = errors.New("duplicate")
	ErrEmptyCart         = errors.New("empty cart")

	ErrRefundExceedsTotal = errors.New("refunds would exceed the order total")
)

type GormRepo struct{ DB *gorm.DB }

func (r *GormRepo) Migrate(ctx context.Context) error {
	db := r.DB.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	// at most one active shift per operator
	return db.Exec(fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active ON shifts (operator_id) WHERE status = '%s'",
		models.ShiftActive,
	)).Error
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
