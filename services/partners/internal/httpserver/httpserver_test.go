package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	Repo *repo.GormRepo
	Jobs *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := pkgdb.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.Migrate(ctx))

	calc, err := pricing.NewCalculator(pricing.DefaultTaxRate)
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	pub := &events.Recorder{}
	jobs := &events.Recorder{}
	dev := &devices.KafkaDispatcher{Publisher: jobs, TerminalID: "till-1"}

	e := echo.New()
	e.Validator = validate.New()
	Register(e, &Deps{
		Catalog:   &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: pub, Devices: dev}},
		Cart:      &CartHTTP{Svc: &service.CartService{Repo: r, Calc: calc}, Checkout: &service.CheckoutService{Repo: r, Calc: calc, Devices: dev, Events: pub, IDs: node, StoreName: "Test"}},
		Orders:    &OrderHTTP{Svc: &service.OrderService{Repo: r, Calc: calc, Devices: dev, Events: pub, StoreName: "Test"}},
		Customers: &CustomerHTTP{Svc: &service.CustomerService{Repo: r}},
		Refunds:   &RefundHTTP{Svc: &service.RefundService{Repo: r, Events: pub, Devices: dev, IDs: node}},
		Shifts:    &ShiftHTTP{Svc: &service.ShiftService{Repo: r, Events: pub, Devices: dev}},
		Devices:   &DeviceHTTP{Devices: dev},
		JWTSecret: testSecret,
		Ready:     r.Ping,
	})

	return &testEnv{T: t, E: e, Repo: r, Jobs: jobs}
}

func (env *testEnv) token(id uint, role string) string {
	env.T.Helper()
	now := time.Now().UTC()
	tok, err := tokens.Sign(tokens.AccessClaims{
		Role:     role,
		Username: role + strconv.Itoa(int(id)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}, testSecret)
	require.NoError(env.T, err)
	return tok
}

func (env *testEnv) doJSONRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func num(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	switch x := v.(type) {
	case string:
		return decimal.RequireFromString(x)
	case float64:
		return decimal.NewFromFloat(x)
	}
	t.Fatalf("not a number: %#v", v)
	return decimal.Zero
}

const (
	adminID   uint = 1
	managerID uint = 2
	cashierID uint = 3
)

func (env *testEnv) seedProduct(sku, price string, qty int) {
	env.T.Helper()
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/partners/products", map[string]any{
		"sku":          sku,
		"name":         "Item " + sku,
		"cost_price":   "1.00",
		"sale_price":   price,
		"quantity":     qty,
		"min_quantity": 0,
	}, env.token(adminID, tokens.RoleAdmin))
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/ready", nil, "").Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/partners/customers", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/partners/customers", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomersEndpoints(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.token(cashierID, tokens.RoleCashier)
	manager := env.token(managerID, tokens.RoleManager)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/partners/customers", map[string]any{"name": "Ann", "phone": "+201000"}, cashier)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint(decode(t, rec)["id"].(float64))

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/customers", map[string]any{"name": "Other", "phone": "+201000"}, cashier)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/customers", map[string]any{"phone": "+1"}, cashier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/partners/customers?q=ann", nil, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(1), body["meta"].(map[string]any)["total"])

	path := fmt.Sprintf("/api/v1/partners/customers/%d", id)
	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodDelete, path, nil, cashier).Code)
	assert.Equal(t, http.StatusNoContent, env.doJSONRequest(http.MethodDelete, path, nil, manager).Code)
	assert.Equal(t, http.StatusNotFound, env.doJSONRequest(http.MethodDelete, path, nil, manager).Code)
	assert.Equal(t, http.StatusBadRequest, env.doJSONRequest(http.MethodDelete, "/api/v1/partners/customers/abc", nil, manager).Code)
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.token(cashierID, tokens.RoleCashier)
	env.seedProduct("SKU-1", "10.00", 5)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/partners/products", map[string]any{"sku": "X", "name": "x", "sale_price": "1"}, cashier)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/cart/items", map[string]any{"sku": "SKU-1", "quantity": 2}, cashier)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/cart/items", map[string]any{"sku": "SKU-1", "quantity": 1}, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode(t, rec)
	assert.Len(t, cart["items"], 1)
	assert.True(t, decimal.RequireFromString("34.2").Equal(num(t, cart["totals"].(map[string]any)["total"])))

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/cart/items", map[string]any{"sku": "SKU-1", "quantity": 10}, cashier)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/checkout", map[string]any{"payment_method": "bitcoin"}, cashier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/checkout", map[string]any{"payment_method": "cash", "amount_tendered": "40"}, cashier)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.True(t, decimal.RequireFromString("5.8").Equal(num(t, res["change"])))
	order := res["order"].(map[string]any)
	assert.Equal(t, "paid", order["payment_status"])

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/partners/products/SKU-1", nil, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["quantity"])

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/checkout", map[string]any{"payment_method": "card"}, cashier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/partners/orders/number/"+order["number"].(string), nil, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["payments"], 1)
}

func TestRefundReviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.token(cashierID, tokens.RoleCashier)
	manager := env.token(managerID, tokens.RoleManager)
	env.seedProduct("SKU-1", "10.00", 5)

	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodPost, "/api/v1/partners/cart/items", map[string]any{"sku": "SKU-1", "quantity": 1}, cashier).Code)
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/partners/checkout", map[string]any{"payment_method": "card"}, cashier)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decode(t, rec)["order"].(map[string]any)["id"].(float64)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/refunds", map[string]any{
		"order_id": orderID,
		"reason":   "wrong size",
		"items":    []map[string]any{{"sku": "SKU-1", "quantity": 1, "condition": "unopened"}},
	}, cashier)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	refundID := uint(decode(t, rec)["id"].(float64))
	base := fmt.Sprintf("/api/v1/partners/refunds/%d", refundID)

	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodPost, base+"/approve", nil, cashier).Code)

	rec = env.doJSONRequest(http.MethodPost, base+"/approve", map[string]any{"note": "ok"}, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode(t, rec)["status"])

	rec = env.doJSONRequest(http.MethodPost, base+"/reject", nil, manager)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, base+"/process", nil, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "refunded", decode(t, rec)["order"].(map[string]any)["payment_status"])

	assert.Equal(t, http.StatusNotFound, env.doJSONRequest(http.MethodPost, "/api/v1/partners/refunds/999/approve", nil, manager).Code)
}

func TestShiftEndpoints(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.token(cashierID, tokens.RoleCashier)
	other := env.token(cashierID+10, tokens.RoleCashier)

	assert.Equal(t, http.StatusNotFound, env.doJSONRequest(http.MethodGet, "/api/v1/partners/shifts/current", nil, cashier).Code)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/partners/shifts/open", map[string]any{"starting_cash": "50"}, cashier)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shiftID := uint(decode(t, rec)["id"].(float64))

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/shifts/open", map[string]any{"starting_cash": "50"}, cashier)
	assert.Equal(t, http.StatusConflict, rec.Code)

	path := fmt.Sprintf("/api/v1/partners/shifts/%d", shiftID)
	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodGet, path, nil, other).Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/partners/shifts/close", map[string]any{"ending_cash": "45"}, cashier)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decode(t, rec)
	assert.Equal(t, "closed", closed["status"])
	assert.True(t, decimal.RequireFromString("-5").Equal(num(t, closed["cash_difference"])))

	assert.Contains(t, strings.Join(jobTypes(env.Jobs), ","), devices.JobPrintShiftSummary)
}

func TestProductsExportAndDevices(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.token(cashierID, tokens.RoleCashier)
	env.seedProduct("SKU-1", "10.00", 5)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/partners/products/export.csv", nil, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	assert.Contains(t, rec.Body.String(), "SKU-1,Item SKU-1")

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/partners/products/search?q=item", nil, cashier)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	assert.Equal(t, http.StatusAccepted, env.doJSONRequest(http.MethodPost, "/api/v1/partners/products/SKU-1/barcode", map[string]any{"copies": 2}, cashier).Code)
	assert.Equal(t, http.StatusAccepted, env.doJSONRequest(http.MethodPost, "/api/v1/partners/devices/cash-drawer", nil, cashier).Code)
	assert.Equal(t, http.StatusBadRequest, env.doJSONRequest(http.MethodPost, "/api/v1/partners/devices/notify", map[string]any{"body": "x"}, cashier).Code)

	assert.Equal(t, []string{devices.JobPrintBarcode, devices.JobOpenCashDrawer}, jobTypes(env.Jobs))
}

func jobTypes(rec *events.Recorder) []string {
	var out []string
	for _, m := range rec.ByTopic(events.TopicDevices) {
		out = append(out, m.Payload["type"].(string))
	}
	return out
}
