package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/partners_pos/services/auth/internal/models"
)

var (
	ErrDuplicate    = errors.New("duplicate")
	ErrTokenInvalid = errors.New("refresh token expired, revoked or unknown")
)

type GormRepo struct{ DB *gorm.DB }

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&models.Operator{}, &models.RefreshToken{})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) CreateOperator(ctx context.Context, op *models.Operator) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Operator{}).Where("username = ?", op.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(op).Error
	})
}

func (r *GormRepo) OperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *GormRepo) OperatorByID(ctx context.Context, id uint) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).First(&op, id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *GormRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Operator{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *GormRepo) SaveRefresh(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RotateRefresh revokes the presented token and stores its successor in one
// transaction. A token can be rotated once.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.RefreshToken
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("jti = ? AND token_hash = ?", oldJTI, oldHash).
			First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return err
		}
		if cur.Revoked || cur.ExpiresAt.Before(time.Now().UTC()) || cur.OperatorID != next.OperatorID {
			return ErrTokenInvalid
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", cur.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenInvalid
		}
		return tx.Create(next).Error
	})
}

// RevokeRefresh is idempotent; unknown tokens are not an error.
func (r *GormRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllForOperator(ctx context.Context, operatorID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("operator_id = ? AND revoked = ?", operatorID, false).
		Update("revoked", true).Error
}
