package httpserver

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

func upstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", name)
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.Header().Set("X-Seen-Auth", r.Header.Get(echo.HeaderAuthorization))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, authURL, partnersURL string) *echo.Echo {
	t.Helper()
	e := echo.New()
	require.NoError(t, Register(e, &Deps{AuthURL: authURL, PartnersURL: partnersURL, JWTSecret: testSecret}))
	return e
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := tokens.Sign(tokens.AccessClaims{
		Role: tokens.RoleCashier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, testSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthRoutesArePublic(t *testing.T) {
	auth := upstream(t, "auth")
	partners := upstream(t, "partners")
	e := newGateway(t, auth.URL, partners.URL)

	rec := serve(e, http.MethodPost, "/api/v1/auth/login", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "/api/v1/auth/login", rec.Header().Get("X-Seen-Path"))
}

func TestPartnersRoutesRequireBearer(t *testing.T) {
	auth := upstream(t, "auth")
	partners := upstream(t, "partners")
	e := newGateway(t, auth.URL, partners.URL)

	rec := serve(e, http.MethodGet, "/api/v1/partners/products", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/api/v1/partners/products", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := bearer(t)
	rec = serve(e, http.MethodGet, "/api/v1/partners/products", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partners", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "/api/v1/partners/products", rec.Header().Get("X-Seen-Path"))
	assert.Equal(t, tok, rec.Header().Get("X-Seen-Auth"))
}

func TestUpstreamDown(t *testing.T) {
	auth := upstream(t, "auth")
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	e := newGateway(t, auth.URL, deadURL)

	rec := serve(e, http.MethodGet, "/api/v1/partners/cart", bearer(t))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(e, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(e, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	e := newGateway(t, upstream(t, "auth").URL, upstream(t, "partners").URL)

	rec := serve(e, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
