package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/service"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func fail(l *slog.Logger, event string, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		l.Warn(event, "status", he.Code, "reason", he.Message, "error", err)
		return he
	}

	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "login_failed", err)
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "refresh_failed", err)
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "logout_failed", echo.NewHTTPError(http.StatusBadRequest, "invalid body"))
	}
	if err := h.Svc.LogOut(ctx, req.RefreshToken); err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) CreateOperator(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.create_operator")

	var req transport.CreateOperatorRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "create_operator_failed", err)
	}

	op, err := h.Svc.CreateOperator(ctx, req)
	if err != nil {
		return fail(l, "create_operator_failed", err)
	}
	return c.JSON(http.StatusCreated, op)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, err := authmw.OperatorID(c)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	op, err := h.Svc.Me(ctx, id)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, op)
}
