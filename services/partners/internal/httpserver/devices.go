package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type DeviceHTTP struct {
	Devices devices.Dispatcher
}

func (h *DeviceHTTP) OpenCashDrawer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "device.cash_drawer")

	if err := h.Devices.OpenCashDrawer(ctx); err != nil {
		return fail(l, "open_cash_drawer_failed", err)
	}

	l.Info("open_cash_drawer_success")
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *DeviceHTTP) Notify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "device.notify")

	var req transport.NotifyRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "notify_failed", err)
	}

	if err := h.Devices.ShowNotification(ctx, devices.Notification{Title: req.Title, Body: req.Body, Level: req.Level}); err != nil {
		return fail(l, "notify_failed", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}
