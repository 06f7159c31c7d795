package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CustomerHTTP struct {
	Svc *service.CustomerService
}

func (h *CustomerHTTP) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.list")

	p := pageFrom(c)
	total, items, err := h.Svc.List(ctx, c.QueryParam("q"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_customers_failed", err)
	}

	l.Info("list_customers_success", "total", total)
	return paged(c, p, items, total)
}

func (h *CustomerHTTP) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.get")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_customer_failed", err)
	}
	cust, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_customer_failed", err)
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *CustomerHTTP) CreateCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.create")

	var req transport.CreateCustomerRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "create_customer_failed", err)
	}

	cust, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_customer_failed", err)
	}

	l.Info("create_customer_success", "customer_id", cust.ID)
	return c.JSON(http.StatusCreated, cust)
}

func (h *CustomerHTTP) DeleteCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customer.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_customer_failed", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_customer_failed", err)
	}

	l.Info("delete_customer_success", "customer_id", id)
	return c.NoContent(http.StatusNoContent)
}
