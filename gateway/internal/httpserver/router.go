package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
)

type Deps struct {
	AuthURL     string
	PartnersURL string
	JWTSecret   []byte

	// Transport is used for proxying and readiness checks. Nil means a
	// pooled default.
	Transport http.RoundTripper
}

func Register(e *echo.Echo, d *Deps) error {
	rt := d.Transport
	if rt == nil {
		rt = newTransport()
	}

	authProxy, err := newProxy("auth", d.AuthURL, rt)
	if err != nil {
		return fmt.Errorf("auth proxy: %w", err)
	}
	partnersProxy, err := newProxy("partners", d.PartnersURL, rt)
	if err != nil {
		return fmt.Errorf("partners proxy: %w", err)
	}

	checker := &http.Client{Transport: rt, Timeout: 2 * time.Second}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		for _, base := range []string{d.AuthURL, d.PartnersURL} {
			if err := ready(c.Request().Context(), checker, base); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.Any("/api/v1/auth/*", authProxy)

	partners := e.Group("/api/v1/partners")
	partners.Use(authmw.NewBearerAuth(d.JWTSecret).RequireAuth)
	partners.Any("", partnersProxy)
	partners.Any("/*", partnersProxy)

	return nil
}

func ready(ctx context.Context, client *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health/ready", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", base, resp.StatusCode)
	}
	return nil
}
