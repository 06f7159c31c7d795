package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409

	ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("invalid state transition: %w", ErrConflict)
)

// translate maps storage errors onto the service sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repo.ErrInsufficientStock):
		return fmt.Errorf("%s: %v: %w", what, err, ErrInsufficientStock)
	case errors.Is(err, repo.ErrRefundExceedsTotal):
		return fmt.Errorf("%s: %v: %w", what, err, ErrConflict)
	case errors.Is(err, repo.ErrStateConflict):
		return fmt.Errorf("%s: %w", what, ErrInvalidTransition)
	case errors.Is(err, repo.ErrDuplicate):
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	case errors.Is(err, repo.ErrEmptyCart):
		return fmt.Errorf("cart is empty: %w", ErrValidation)
	case errors.Is(err, pricing.ErrInvalidLine):
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	return err
}

const sideEffectTimeout = 5 * time.Second

// afterCommit runs a post-commit side effect. Failures are logged only; the
// committed state stands.
func afterCommit(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.FromContext(ctx).Warn("side_effect_failed", "effect", name, "error", err)
	}
}
