package middleware

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
)

const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxUsername = "username"
)

type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := tokens.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxUsername, claims.Username)

		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("operator_id", claims.Subject)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))

		return next(c)
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(allowed, role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// OperatorID returns the numeric subject set by RequireAuth.
func OperatorID(c echo.Context) (uint, error) {
	s, _ := c.Get(CtxUserID).(string)
	if s == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return uint(id), nil
}

func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

func Username(c echo.Context) string {
	u, _ := c.Get(CtxUsername).(string)
	return u
}
