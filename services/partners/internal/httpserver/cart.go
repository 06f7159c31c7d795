package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CartHTTP struct {
	Svc      *service.CartService
	Checkout *service.CheckoutService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	view, err := h.Svc.View(ctx, opID)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "add_cart_item_failed", err)
	}

	view, err := h.Svc.AddItem(ctx, opID, req.SKU, req.Quantity)
	if err != nil {
		return fail(l, "add_cart_item_failed", err)
	}

	l.Info("add_cart_item_success", "sku", req.SKU, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) PatchItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.patch_item")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.PatchCartItemRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "patch_cart_item_failed", err)
	}

	view, err := h.Svc.PatchItem(ctx, opID, c.Param("sku"), req)
	if err != nil {
		return fail(l, "patch_cart_item_failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	view, err := h.Svc.RemoveItem(ctx, opID, c.Param("sku"))
	if err != nil {
		return fail(l, "remove_cart_item_failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, opID); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) CheckoutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.CheckoutRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "checkout_failed", err)
	}

	res, err := h.Checkout.Checkout(ctx, opID, authmw.Username(c), req)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}

	l.Info("checkout_success", "order_id", res.Order.ID, "number", res.Order.Number)
	return c.JSON(http.StatusCreated, res)
}
