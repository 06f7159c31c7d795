package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type RefundHTTP struct {
	Svc *service.RefundService
}

func (h *RefundHTTP) ListRefunds(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.list")

	orderID, err := queryID(c, "order_id")
	if err != nil {
		return fail(l, "list_refunds_failed", err)
	}
	p := pageFrom(c)
	total, items, err := h.Svc.List(ctx, c.QueryParam("status"), orderID, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_refunds_failed", err)
	}

	l.Info("list_refunds_success", "total", total)
	return paged(c, p, items, total)
}

func (h *RefundHTTP) GetRefund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_refund_failed", err)
	}
	r, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_refund_failed", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RefundHTTP) CreateRefund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.create")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.CreateRefundRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "create_refund_failed", err)
	}

	r, err := h.Svc.Create(ctx, req, opID)
	if err != nil {
		return fail(l, "create_refund_failed", err)
	}

	l.Info("create_refund_success", "refund_id", r.ID, "order_id", r.OrderID, "amount", r.Amount.StringFixed(2))
	return c.JSON(http.StatusCreated, r)
}

func (h *RefundHTTP) Approve(c echo.Context) error {
	return h.review(c, "refund.approve", "approve_refund", h.Svc.Approve)
}

func (h *RefundHTTP) Reject(c echo.Context) error {
	return h.review(c, "refund.reject", "reject_refund", h.Svc.Reject)
}

func (h *RefundHTTP) review(c echo.Context, handler, event string,
	apply func(ctx context.Context, id, reviewer uint, note string) (*models.RefundRequest, error),
) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	reviewer, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, event+"_failed", err)
	}
	var req transport.ReviewRefundRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, event+"_failed", err)
	}

	r, err := apply(ctx, id, reviewer, req.Note)
	if err != nil {
		return fail(l, event+"_failed", err)
	}

	l.Info(event+"_success", "refund_id", r.ID, "status", r.Status)
	return c.JSON(http.StatusOK, r)
}

func (h *RefundHTTP) Process(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.process")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "process_refund_failed", err)
	}

	res, err := h.Svc.Process(ctx, id, opID)
	if err != nil {
		return fail(l, "process_refund_failed", err)
	}

	l.Info("process_refund_success", "refund_id", id, "restocked", len(res.Restocked))
	return c.JSON(http.StatusOK, map[string]any{
		"refund":  res.Refund,
		"order":   res.Order,
		"payment": res.Payment,
	})
}
