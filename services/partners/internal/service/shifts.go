package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
)

type ShiftService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Devices devices.Dispatcher
}

func (s *ShiftService) Open(ctx context.Context, operatorID uint, startingCash decimal.Decimal, note string) (*models.Shift, error) {
	if err := validateMoney("starting_cash", startingCash); err != nil {
		return nil, err
	}
	shift := &models.Shift{
		OperatorID:   operatorID,
		Status:       models.ShiftActive,
		StartedAt:    time.Now().UTC(),
		StartingCash: startingCash,
		TotalSales:   decimal.Zero,
		CashSales:    decimal.Zero,
		RefundsTotal: decimal.Zero,
		CashRefunds:  decimal.Zero,
		Note:         strings.TrimSpace(note),
	}
	if err := s.Repo.OpenShift(ctx, shift); err != nil {
		if errors.Is(err, repo.ErrStateConflict) {
			return nil, fmt.Errorf("operator already has an active shift: %w", ErrConflict)
		}
		return nil, err
	}
	s.publish(ctx, "shift_opened", shift)
	return shift, nil
}

func (s *ShiftService) Current(ctx context.Context, operatorID uint) (*models.Shift, error) {
	shift, err := s.Repo.ActiveShift(ctx, operatorID)
	if err != nil {
		return nil, translate(err, "active shift")
	}
	return shift, nil
}

// ExpectedCash is the drawer balance a shift should close with.
func ExpectedCash(sh *models.Shift) decimal.Decimal {
	return sh.StartingCash.Add(sh.CashSales).Sub(sh.CashRefunds)
}

// Close settles the operator's active shift against the counted cash and
// prints the summary.
func (s *ShiftService) Close(ctx context.Context, operatorID uint, operatorName string, endingCash decimal.Decimal, note string) (*models.Shift, error) {
	if err := validateMoney("ending_cash", endingCash); err != nil {
		return nil, err
	}
	shift, err := s.Repo.CloseShift(ctx, operatorID, func(sh *models.Shift) error {
		now := time.Now().UTC()
		expected := ExpectedCash(sh)
		diff := endingCash.Sub(expected)
		sh.Status = models.ShiftClosed
		sh.EndedAt = &now
		sh.EndingCash = &endingCash
		sh.ExpectedCash = &expected
		sh.CashDifference = &diff
		if n := strings.TrimSpace(note); n != "" {
			sh.Note = n
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active shift: %w", ErrNotFound)
		}
		return nil, err
	}

	s.publish(ctx, "shift_closed", shift)
	afterCommit(ctx, "print_shift_summary", func(ctx context.Context) error {
		return s.Devices.PrintShiftSummary(ctx, devices.NewShiftSummary(operatorName, shift))
	})
	return shift, nil
}

func (s *ShiftService) Get(ctx context.Context, id uint) (*models.Shift, error) {
	shift, err := s.Repo.GetShift(ctx, id)
	return shift, translate(err, fmt.Sprintf("shift %d", id))
}

func (s *ShiftService) List(ctx context.Context, operatorID uint, status string, offset, limit int) (int64, []models.Shift, error) {
	return s.Repo.ListShifts(ctx, operatorID, status, offset, limit)
}

func (s *ShiftService) publish(ctx context.Context, typ string, sh *models.Shift) {
	afterCommit(ctx, "publish_"+typ, func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicShifts, fmt.Sprintf("%d", sh.OperatorID), map[string]any{
			"type":        typ,
			"shift_id":    sh.ID,
			"operator_id": sh.OperatorID,
			"status":      sh.Status,
			"total_sales": sh.TotalSales,
			"timestamp":   time.Now().UTC(),
		})
	})
}
