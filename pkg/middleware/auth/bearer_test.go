package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/partners_pos/pkg/tokens"
)

var testSecret = []byte("test-jwt-secret")

func signed(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := tokens.Sign(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, testSecret)
	require.NoError(t, err)
	return tok
}

func newServer() *echo.Echo {
	e := echo.New()
	auth := NewBearerAuth(testSecret)
	g := e.Group("", auth.RequireAuth)
	g.GET("/me", func(c echo.Context) error {
		id, err := OperatorID(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		RequireRole(tokens.RoleAdmin, tokens.RoleManager))
	return e
}

func do(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuth(t *testing.T) {
	e := newServer()

	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "garbage").Code)

	rec := do(e, "/me", signed(t, "12", tokens.RoleCashier))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":12,"role":"cashier"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", signed(t, "abc", tokens.RoleCashier)).Code)
}

func TestRequireRole(t *testing.T) {
	e := newServer()

	assert.Equal(t, http.StatusForbidden, do(e, "/admin", signed(t, "1", tokens.RoleCashier)).Code)
	assert.Equal(t, http.StatusNoContent, do(e, "/admin", signed(t, "1", tokens.RoleManager)).Code)
	assert.Equal(t, http.StatusNoContent, do(e, "/admin", signed(t, "1", tokens.RoleAdmin)).Code)
}
