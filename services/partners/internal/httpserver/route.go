package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/tokens"
)

type Deps struct {
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Orders    *OrderHTTP
	Customers *CustomerHTTP
	Refunds   *RefundHTTP
	Shifts    *ShiftHTTP
	Devices   *DeviceHTTP

	JWTSecret []byte
	Ready     func(ctx context.Context) error
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

	auth := authmw.NewBearerAuth(d.JWTSecret)
	supervisor := authmw.RequireRole(tokens.RoleAdmin, tokens.RoleManager)

	api := e.Group("/api/v1/partners", auth.RequireAuth)

	products := api.Group("/products")
	products.GET("", d.Catalog.ListProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/low-stock", d.Catalog.LowStock)
	products.GET("/export.csv", d.Catalog.ExportCSV)
	products.GET("/:sku", d.Catalog.GetProduct)
	products.GET("/:sku/movements", d.Catalog.Movements)
	products.POST("/:sku/barcode", d.Catalog.PrintBarcode)
	products.POST("", d.Catalog.CreateProduct, supervisor)
	products.POST("/import", d.Catalog.ImportCSV, supervisor)
	products.PATCH("/:sku", d.Catalog.PatchProduct, supervisor)
	products.DELETE("/:sku", d.Catalog.DeactivateProduct, supervisor)
	products.POST("/:sku/stock", d.Catalog.AdjustStock, supervisor)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:sku", d.Cart.PatchItem)
	cart.DELETE("/items/:sku", d.Cart.RemoveItem)
	api.POST("/checkout", d.Cart.CheckoutCart)

	orders := api.Group("/orders")
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/number/:number", d.Orders.GetOrderByNumber)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.POST("/:id/receipt", d.Orders.Reprint)
	orders.PATCH("/:id/status", d.Orders.UpdateStatus, supervisor)

	customers := api.Group("/customers")
	customers.GET("", d.Customers.ListCustomers)
	customers.GET("/:id", d.Customers.GetCustomer)
	customers.POST("", d.Customers.CreateCustomer)
	customers.DELETE("/:id", d.Customers.DeleteCustomer, supervisor)

	refunds := api.Group("/refunds")
	refunds.GET("", d.Refunds.ListRefunds)
	refunds.GET("/:id", d.Refunds.GetRefund)
	refunds.POST("", d.Refunds.CreateRefund)
	refunds.POST("/:id/approve", d.Refunds.Approve, supervisor)
	refunds.POST("/:id/reject", d.Refunds.Reject, supervisor)
	refunds.POST("/:id/process", d.Refunds.Process, supervisor)

	shifts := api.Group("/shifts")
	shifts.POST("/open", d.Shifts.Open)
	shifts.POST("/close", d.Shifts.Close)
	shifts.GET("/current", d.Shifts.Current)
	shifts.GET("", d.Shifts.ListShifts)
	shifts.GET("/:id", d.Shifts.GetShift)

	dev := api.Group("/devices")
	dev.POST("/cash-drawer", d.Devices.OpenCashDrawer)
	dev.POST("/notify", d.Devices.Notify)
}
