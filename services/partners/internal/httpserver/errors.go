package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/pagination"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
)

// fail logs a failed handler call and converts err into the HTTP error the
// client sees.
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
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
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

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(id), nil
}

func queryID(c echo.Context, name string) (uint, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(id), nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a boolean")
	}
	return &b, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" must be RFC 3339 or YYYY-MM-DD")
}

type pageParams struct {
	page, size    int
	offset, limit int
}

func pageFrom(c echo.Context) pageParams {
	page := pagination.ParseIntDefault(c.QueryParam("page"), 1)
	size := pagination.ParseIntDefault(c.QueryParam("size"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)
	return pageParams{page: page, size: limit, offset: offset, limit: limit}
}

func paged[T any](c echo.Context, p pageParams, items []T, total int64) error {
	return c.JSON(http.StatusOK, pagination.New(items, p.page, p.size, total))
}
