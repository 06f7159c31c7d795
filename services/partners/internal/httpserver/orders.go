package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	f := repo.OrderFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
	}
	var err error
	if f.OperatorID, err = queryID(c, "operator_id"); err != nil {
		return fail(l, "list_orders_failed", err)
	}
	if f.ShiftID, err = queryID(c, "shift_id"); err != nil {
		return fail(l, "list_orders_failed", err)
	}
	if f.From, err = queryTime(c, "from"); err != nil {
		return fail(l, "list_orders_failed", err)
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return fail(l, "list_orders_failed", err)
	}

	p := pageFrom(c)
	total, items, err := h.Svc.List(ctx, f, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}

	l.Info("list_orders_success", "total", total)
	return paged(c, p, items, total)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	o, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) GetOrderByNumber(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_by_number")

	o, err := h.Svc.GetByNumber(ctx, c.Param("number"))
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_order_status_failed", err)
	}
	var req transport.UpdateOrderStatusRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "update_order_status_failed", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status, req.PaymentStatus)
	if err != nil {
		return fail(l, "update_order_status_failed", err)
	}

	l.Info("update_order_status_success", "order_id", o.ID, "status", o.Status, "payment_status", o.PaymentStatus)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Reprint(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.reprint")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "reprint_receipt_failed", err)
	}
	r, err := h.Svc.Reprint(ctx, id, authmw.Username(c))
	if err != nil {
		return fail(l, "reprint_receipt_failed", err)
	}

	l.Info("reprint_receipt_success", "order_id", id)
	return c.JSON(http.StatusAccepted, map[string]any{"status": "queued", "receipt": r.Render()})
}
