package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type ShiftHTTP struct {
	Svc *service.ShiftService
}

func isSupervisor(c echo.Context) bool {
	r := authmw.Role(c)
	return r == tokens.RoleAdmin || r == tokens.RoleManager
}

func (h *ShiftHTTP) Open(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shift.open")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.OpenShiftRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "open_shift_failed", err)
	}

	sh, err := h.Svc.Open(ctx, opID, req.StartingCash, req.Note)
	if err != nil {
		return fail(l, "open_shift_failed", err)
	}

	l.Info("open_shift_success", "shift_id", sh.ID)
	return c.JSON(http.StatusCreated, sh)
}

func (h *ShiftHTTP) Close(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shift.close")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.CloseShiftRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "close_shift_failed", err)
	}

	sh, err := h.Svc.Close(ctx, opID, authmw.Username(c), req.EndingCash, req.Note)
	if err != nil {
		return fail(l, "close_shift_failed", err)
	}

	l.Info("close_shift_success", "shift_id", sh.ID, "cash_difference", sh.CashDifference.StringFixed(2))
	return c.JSON(http.StatusOK, sh)
}

func (h *ShiftHTTP) Current(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shift.current")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	sh, err := h.Svc.Current(ctx, opID)
	if err != nil {
		return fail(l, "current_shift_failed", err)
	}
	return c.JSON(http.StatusOK, sh)
}

// ListShifts shows cashiers their own shifts; supervisors may filter by
// operator_id.
func (h *ShiftHTTP) ListShifts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shift.list")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	filter := opID
	if isSupervisor(c) {
		if filter, err = queryID(c, "operator_id"); err != nil {
			return fail(l, "list_shifts_failed", err)
		}
	}

	p := pageFrom(c)
	total, items, err := h.Svc.List(ctx, filter, c.QueryParam("status"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_shifts_failed", err)
	}
	return paged(c, p, items, total)
}

func (h *ShiftHTTP) GetShift(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shift.get")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_shift_failed", err)
	}
	sh, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_shift_failed", err)
	}
	if sh.OperatorID != opID && !isSupervisor(c) {
		return fail(l, "get_shift_failed", fmt.Errorf("shift %d belongs to another operator: %w", id, service.ErrForbidden))
	}
	return c.JSON(http.StatusOK, sh)
}
