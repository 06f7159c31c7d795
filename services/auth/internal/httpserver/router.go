package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
	Ready       func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMw := authmw.NewBearerAuth(d.JWTSecret)

	api := e.Group("/api/v1/auth")
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)
	api.POST("/logout", d.AuthHandler.LogOut)

	private := api.Group("")
	private.Use(authMw.RequireAuth)
	private.GET("/me", d.AuthHandler.Me)
	private.POST("/operators", d.AuthHandler.CreateOperator, authmw.RequireRole(tokens.RoleAdmin))
}
